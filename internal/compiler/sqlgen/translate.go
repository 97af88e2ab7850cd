package sqlgen

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/atlekbai/metaquery/internal/compiler"
	"github.com/atlekbai/metaquery/internal/formula"
	"github.com/atlekbai/metaquery/internal/schema"
)

// Statement is a physical query ready to run.
type Statement struct {
	SQL     string
	Args    []any
	Columns []string // output column aliases, in select order
}

// Translate renders a plan as a single SELECT statement. A rowLimit below
// zero means no LIMIT clause.
func Translate(plan *compiler.Plan, d Dialect, rowLimit int) (*Statement, error) {
	t := &translator{model: plan.Model, dialect: d}

	root, joins, err := joinTree(plan.Model, t.tables(plan))
	if err != nil {
		return nil, err
	}

	b := sq.Select().PlaceholderFormat(d.Placeholder)
	if plan.Distinct {
		b = b.Distinct()
	}

	stmt := &Statement{}
	for _, sel := range plan.Selections {
		b = b.Column(columnExpr(sel.Column, sel.Agg) + " AS " + QuoteIdent(sel.Alias()))
		stmt.Columns = append(stmt.Columns, sel.Alias())
	}

	b = b.From(QuoteTable(root.Name) + " " + QuoteIdent(root.ID))
	for _, j := range joins {
		clause := QuoteTable(j.table.Name) + " " + QuoteIdent(j.table.ID) + " ON " + j.on
		if j.left {
			b = b.LeftJoin(clause)
		} else {
			b = b.Join(clause)
		}
	}

	if plan.Where != nil {
		pred, err := t.predicate(plan.Where)
		if err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
		b = b.Where(pred)
	}

	if plan.Grouped() {
		var groups []string
		for _, sel := range plan.Selections {
			if !sel.Agg.IsAggregate() {
				groups = appendUnique(groups, columnExpr(sel.Column, schema.AggNone))
			}
		}
		for _, o := range plan.Orders {
			if !o.Agg.IsAggregate() {
				groups = appendUnique(groups, columnExpr(o.Column, schema.AggNone))
			}
		}
		b = b.GroupBy(groups...)
	}

	if plan.Having != nil {
		pred, err := t.predicate(plan.Having)
		if err != nil {
			return nil, fmt.Errorf("having: %w", err)
		}
		b = b.Having(pred)
	}

	for _, o := range plan.Orders {
		expr := columnExpr(o.Column, o.Agg)
		if sel, ok := plan.Selection(o.Category, o.Column.ID, o.Agg); ok {
			expr = QuoteIdent(sel.Alias())
		}
		dir := " ASC"
		if o.Desc {
			dir = " DESC"
		}
		b = b.OrderBy(expr + dir)
	}

	if rowLimit >= 0 {
		b = b.Limit(uint64(rowLimit))
	}

	stmt.SQL, stmt.Args, err = b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql: %w", err)
	}
	return stmt, nil
}

type translator struct {
	model   *schema.Model
	dialect Dialect
}

// tables lists the physical tables the plan touches, in order of first use.
func (t *translator) tables(plan *compiler.Plan) []string {
	var ids []string
	for _, s := range plan.Selections {
		ids = appendUnique(ids, s.Column.Table)
	}
	for _, n := range []formula.Node{plan.Where, plan.Having} {
		if n == nil {
			continue
		}
		for _, f := range formula.FieldRefs(n) {
			if col := t.model.Column(f.Category, f.Column); col != nil {
				ids = appendUnique(ids, col.Table)
			}
		}
	}
	for _, o := range plan.Orders {
		ids = appendUnique(ids, o.Column.Table)
	}
	return ids
}

func (t *translator) predicate(n formula.Node) (sq.Sqlizer, error) {
	switch n := n.(type) {
	case *formula.Compare:
		left, leftArgs, err := t.operand(n.Left, t.typeOf(n.Right))
		if err != nil {
			return nil, err
		}
		right, rightArgs, err := t.operand(n.Right, t.typeOf(n.Left))
		if err != nil {
			return nil, err
		}
		return sq.Expr(left+" "+n.Op+" "+right, append(leftArgs, rightArgs...)...), nil

	case *formula.FieldRef:
		expr, _, err := t.operand(n, schema.DataTypeBoolean)
		if err != nil {
			return nil, err
		}
		return sq.Expr(expr+" = ?", true), nil

	case *formula.Call:
		return t.call(n)
	}
	return nil, fmt.Errorf("%s is not a condition", formula.Print(n))
}

func (t *translator) call(n *formula.Call) (sq.Sqlizer, error) {
	switch n.Name {
	case "AND", "OR":
		if len(n.Args) == 0 {
			return nil, fmt.Errorf("%s needs at least one argument", n.Name)
		}
		parts := make([]sq.Sqlizer, len(n.Args))
		for i, a := range n.Args {
			p, err := t.predicate(a)
			if err != nil {
				return nil, err
			}
			parts[i] = p
		}
		if n.Name == "AND" {
			return sq.And(parts), nil
		}
		return sq.Or(parts), nil

	case "NOT":
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("NOT takes one argument")
		}
		inner, err := t.predicate(n.Args[0])
		if err != nil {
			return nil, err
		}
		sql, args, err := inner.ToSql()
		if err != nil {
			return nil, err
		}
		return sq.Expr("NOT ("+sql+")", args...), nil

	case "ISNA":
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("ISNA takes one argument")
		}
		expr, args, err := t.operand(n.Args[0], schema.DataTypeUnknown)
		if err != nil {
			return nil, err
		}
		return sq.Expr(expr+" IS NULL", args...), nil

	case "IN":
		if len(n.Args) < 2 {
			return nil, fmt.Errorf("IN needs a value and at least one candidate")
		}
		target, args, err := t.operand(n.Args[0], schema.DataTypeUnknown)
		if err != nil {
			return nil, err
		}
		hint := t.typeOf(n.Args[0])
		holders := make([]string, 0, len(n.Args)-1)
		for _, a := range n.Args[1:] {
			expr, more, err := t.operand(a, hint)
			if err != nil {
				return nil, err
			}
			holders = append(holders, expr)
			args = append(args, more...)
		}
		return sq.Expr(target+" IN ("+strings.Join(holders, ", ")+")", args...), nil

	case "CONTAINS", "BEGINSWITH", "ENDSWITH", "LIKE":
		if len(n.Args) != 2 {
			return nil, fmt.Errorf("%s takes two arguments", n.Name)
		}
		target, args, err := t.operand(n.Args[0], schema.DataTypeUnknown)
		if err != nil {
			return nil, err
		}
		lit, ok := n.Args[1].(*formula.Literal)
		if !ok {
			return nil, fmt.Errorf("%s needs a literal pattern", n.Name)
		}
		if n.Name == "LIKE" {
			return sq.Expr(target+" LIKE ?", append(args, lit.Value)...), nil
		}
		pattern := likeEscaper.Replace(lit.Value)
		switch n.Name {
		case "CONTAINS":
			pattern = "%" + pattern + "%"
		case "BEGINSWITH":
			pattern += "%"
		case "ENDSWITH":
			pattern = "%" + pattern
		}
		return sq.Expr(target+` LIKE ? ESCAPE '\'`, append(args, pattern)...), nil

	case "TRUE":
		return sq.Expr("1 = 1"), nil
	case "FALSE":
		return sq.Expr("1 = 0"), nil
	}
	return nil, fmt.Errorf("unsupported function %s", n.Name)
}

// operand renders a value expression. hint is the type of the value it is
// compared against and decides how string literals are bound.
func (t *translator) operand(n formula.Node, hint schema.DataType) (string, []any, error) {
	switch n := n.(type) {
	case *formula.FieldRef:
		col := t.model.Column(n.Category, n.Column)
		if col == nil {
			return "", nil, fmt.Errorf("unknown column [%s.%s]", n.Category, n.Column)
		}
		agg, err := refAgg(n)
		if err != nil {
			return "", nil, err
		}
		return columnExpr(col, agg), nil, nil

	case *formula.Literal:
		if n.Kind == formula.LitNumber {
			return "?", []any{number(n.Value)}, nil
		}
		return t.bind(n.Value, hint)

	case *formula.Call:
		switch n.Name {
		case "DATEVALUE":
			if len(n.Args) != 1 {
				return "", nil, fmt.Errorf("DATEVALUE takes one argument")
			}
			lit, ok := n.Args[0].(*formula.Literal)
			if !ok {
				return "", nil, fmt.Errorf("DATEVALUE needs a literal")
			}
			return t.dialect.DateValue, []any{lit.Value}, nil
		case "TRUE":
			return "?", []any{true}, nil
		case "FALSE":
			return "?", []any{false}, nil
		}
		return "", nil, fmt.Errorf("unsupported function %s in value position", n.Name)

	case *formula.ParamRef:
		return "", nil, fmt.Errorf("unresolved parameter %q", n.Name)
	}
	return "", nil, fmt.Errorf("unsupported operand %s", formula.Print(n))
}

func (t *translator) bind(v string, hint schema.DataType) (string, []any, error) {
	switch hint {
	case schema.DataTypeNumeric:
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return "?", []any{number(v)}, nil
		}
	case schema.DataTypeBoolean:
		if b, err := strconv.ParseBool(v); err == nil {
			return "?", []any{b}, nil
		}
	case schema.DataTypeDate:
		return t.dialect.DateValue, []any{v}, nil
	}
	return "?", []any{v}, nil
}

// typeOf returns the type a node evaluates to, when it is a column.
func (t *translator) typeOf(n formula.Node) schema.DataType {
	f, ok := n.(*formula.FieldRef)
	if !ok {
		return schema.DataTypeUnknown
	}
	if agg, _ := refAgg(f); agg == schema.AggCount || agg == schema.AggCountDistinct {
		return schema.DataTypeNumeric
	}
	if col := t.model.Column(f.Category, f.Column); col != nil {
		return col.Type
	}
	return schema.DataTypeUnknown
}

func refAgg(f *formula.FieldRef) (schema.AggregationType, error) {
	if f.Agg == "" {
		return schema.AggNone, nil
	}
	return schema.ParseAggregationType(f.Agg)
}

var aggFuncs = map[schema.AggregationType]string{
	schema.AggSum:     "SUM",
	schema.AggAverage: "AVG",
	schema.AggCount:   "COUNT",
	schema.AggMinimum: "MIN",
	schema.AggMaximum: "MAX",
}

func columnExpr(col *schema.Column, agg schema.AggregationType) string {
	expr := column(col.Table, col.Expr)
	if agg == schema.AggCountDistinct {
		return "COUNT(DISTINCT " + expr + ")"
	}
	if fn, ok := aggFuncs[agg]; ok {
		return fn + "(" + expr + ")"
	}
	return expr
}

// number binds integral text as int64 and everything else as float64.
func number(v string) any {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// likeEscaper makes a value match itself literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
