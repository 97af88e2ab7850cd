package compiler

import (
	"github.com/google/uuid"

	"github.com/atlekbai/metaquery/internal/formula"
	"github.com/atlekbai/metaquery/internal/schema"
)

// Plan is the resolved, storage-agnostic form of a query request. Every
// column reference in it exists in Model and every parameter reference has
// been replaced by its value.
type Plan struct {
	ID         uuid.UUID
	Model      *schema.Model
	Selections []Selection
	Where      formula.Node // nil when unfiltered
	Having     formula.Node // constraints on aggregated references
	Orders     []Order
	Distinct   bool

	// Constraints holds the substituted formula of each condition, in
	// request order.
	Constraints []string

	// Limit is the row cap requested by the document, or -1.
	Limit int
}

// Selection is a resolved output column.
type Selection struct {
	Category string
	Column   *schema.Column
	Agg      schema.AggregationType
}

// Alias is the output column name.
func (s Selection) Alias() string {
	return s.Column.ID
}

// Order is a resolved sort key.
type Order struct {
	Category string
	Column   *schema.Column
	Agg      schema.AggregationType
	Desc     bool
}

// Grouped reports whether any selection aggregates.
func (p *Plan) Grouped() bool {
	for _, s := range p.Selections {
		if s.Agg.IsAggregate() {
			return true
		}
	}
	return false
}

// Selection finds the output column for a category, column and aggregation.
func (p *Plan) Selection(category, column string, agg schema.AggregationType) (Selection, bool) {
	for _, s := range p.Selections {
		if s.Category == category && s.Column.ID == column && s.Agg == agg {
			return s, true
		}
	}
	return Selection{}, false
}
