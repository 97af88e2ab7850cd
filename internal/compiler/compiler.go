package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/atlekbai/metaquery/internal/formula"
	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/schema"
)

// Models resolves business models by domain and model id.
type Models interface {
	Get(domainID, modelID string) (*schema.Model, bool)
}

// Compile resolves a request against its model and produces a Plan.
//
// Constraints are folded left to right with their combination types, with no
// precedence between AND and OR. Constraints that reference an aggregated
// column go to Having and the rest go to Where. When an OR joins an
// aggregated constraint to the rest, the whole fold goes to Having instead,
// which requires every plain column it references to be grouped.
func Compile(models Models, req *query.Request) (*Plan, error) {
	model, ok := models.Get(req.DomainID, req.ModelID)
	if !ok {
		return nil, &ModelNotFoundError{DomainID: req.DomainID, ModelID: req.ModelID}
	}
	if len(req.Selections) == 0 {
		return nil, ErrNoSelections
	}

	plan := &Plan{
		ID:       uuid.New(),
		Model:    model,
		Distinct: !req.DisableDistinct,
		Limit:    -1,
	}
	if req.Limit != nil && *req.Limit >= 0 {
		plan.Limit = *req.Limit
	}

	for _, sel := range req.Selections {
		col := model.Column(sel.Category, sel.Column)
		if col == nil {
			return nil, &InvalidReferenceError{Kind: "selection", Ref: ref(sel.Category, sel.Column)}
		}
		agg := sel.AggType
		if agg == "" {
			agg = col.DefaultAggType
		}
		if !col.Permits(agg) {
			return nil, &InvalidReferenceError{Kind: "aggregation", Ref: ref(sel.Category, sel.Column, string(agg))}
		}
		plan.Selections = append(plan.Selections, Selection{Category: sel.Category, Column: col, Agg: agg})
	}

	constraints := make([]constraint, 0, len(req.Conditions))
	for i := range req.Conditions {
		c, err := plan.resolveConstraint(req, &req.Conditions[i])
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		constraints = append(constraints, c)
	}

	for _, o := range req.Orders {
		col := model.Column(o.Category, o.Column)
		if col == nil {
			return nil, &InvalidReferenceError{Kind: "order", Ref: ref(o.Category, o.Column)}
		}
		agg := o.AggType
		if agg == "" {
			agg = schema.AggNone
			for _, s := range plan.Selections {
				if s.Category == o.Category && s.Column.ID == o.Column {
					agg = s.Agg
					break
				}
			}
		}
		plan.Orders = append(plan.Orders, Order{Category: o.Category, Column: col, Agg: agg, Desc: o.Direction == query.Desc})
	}

	if err := plan.combine(constraints); err != nil {
		return nil, err
	}
	return plan, nil
}

type constraint struct {
	node       formula.Node
	comb       query.CombinationType
	aggregated bool
}

func (p *Plan) resolveConstraint(req *query.Request, c *query.Condition) (constraint, error) {
	text := c.Expression
	if text == "" {
		col := p.Model.Column(c.Category, c.Column)
		if col == nil {
			return constraint{}, &InvalidReferenceError{Kind: "condition", Ref: ref(c.Category, c.Column)}
		}
		text = c.Compile(col.Type)
	}

	node, err := formula.Parse(text)
	if err != nil {
		return constraint{}, err
	}

	aggregated := false
	for _, f := range formula.FieldRefs(node) {
		if p.Model.Column(f.Category, f.Column) == nil {
			return constraint{}, &InvalidReferenceError{Kind: "condition", Ref: ref(f.Category, f.Column)}
		}
		if f.Agg == "" {
			continue
		}
		agg, err := schema.ParseAggregationType(f.Agg)
		if err != nil {
			return constraint{}, &InvalidReferenceError{Kind: "aggregation", Ref: ref(f.Category, f.Column, f.Agg), Err: err}
		}
		if agg.IsAggregate() {
			aggregated = true
		}
	}

	node, err = formula.Substitute(node, func(name string) ([]string, bool) {
		param, ok := req.Parameter(name)
		if !ok {
			return nil, false
		}
		return param.Effective(), true
	})
	if err != nil {
		var unbound *formula.UnboundParamError
		if errors.As(err, &unbound) {
			return constraint{}, &InvalidReferenceError{Kind: "parameter", Ref: unbound.Name, Err: err}
		}
		return constraint{}, err
	}

	if c.CombinationType.Negated() {
		node = &formula.Call{Name: "NOT", Args: []formula.Node{node}}
	}
	return constraint{node: node, comb: c.CombinationType, aggregated: aggregated}, nil
}

// combine places the resolved constraints in Where and Having. The fold
// splits into Where AND Having when every constraint from the first
// aggregated one onward joins by AND.
func (p *Plan) combine(cs []constraint) error {
	var all formula.Node
	first, split := -1, true
	for i, c := range cs {
		p.Constraints = append(p.Constraints, formula.Print(c.node))
		all = fold(all, c.node, c.comb)
		if c.aggregated && first < 0 {
			first = i
		}
		if first >= 0 && i > 0 && c.comb.Disjunctive() {
			split = false
		}
	}

	switch {
	case first < 0:
		p.Where = all
	case split:
		for _, c := range cs {
			if c.aggregated {
				p.Having = fold(p.Having, c.node, c.comb)
			} else {
				p.Where = fold(p.Where, c.node, c.comb)
			}
		}
	default:
		for _, f := range formula.FieldRefs(all) {
			if agg, _ := schema.ParseAggregationType(f.Agg); f.Agg != "" && agg.IsAggregate() {
				continue
			}
			if !p.groupedBy(f.Category, f.Column) {
				return &MixedConstraintError{Ref: ref(f.Category, f.Column)}
			}
		}
		p.Having = all
	}
	return nil
}

// groupedBy reports whether a plain column is part of the GROUP BY clause.
func (p *Plan) groupedBy(category, column string) bool {
	if !p.Grouped() {
		return false
	}
	for _, s := range p.Selections {
		if !s.Agg.IsAggregate() && s.Category == category && s.Column.ID == column {
			return true
		}
	}
	for _, o := range p.Orders {
		if !o.Agg.IsAggregate() && o.Category == category && o.Column.ID == column {
			return true
		}
	}
	return false
}

// fold joins next onto acc. The combination type of the first constraint
// only contributes its negation.
func fold(acc, next formula.Node, ct query.CombinationType) formula.Node {
	if acc == nil {
		return next
	}
	name := "AND"
	if ct.Disjunctive() {
		name = "OR"
	}
	return &formula.Call{Name: name, Args: []formula.Node{acc, next}}
}

func ref(parts ...string) string {
	return "[" + strings.Join(parts, ".") + "]"
}
