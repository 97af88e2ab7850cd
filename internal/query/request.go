package query

import (
	"slices"

	"github.com/atlekbai/metaquery/internal/schema"
)

// Request is a declarative query against one business model.
type Request struct {
	DomainID        string
	ModelID         string
	DisableDistinct bool
	Selections      []Selection
	Conditions      []Condition
	Orders          []Order
	Parameters      []Parameter

	// Limit is a row cap carried by the document itself; nil means none.
	Limit *int
}

// Selection picks a column. An empty AggType means the column's default.
type Selection struct {
	Category string
	Column   string
	AggType  schema.AggregationType
}

// Order sorts by a column. An empty AggType means the aggregation of the
// matching selection, or none.
type Order struct {
	Category  string
	Column    string
	Direction Direction
	AggType   schema.AggregationType
}

// Parameter is a named runtime value bound to a column. Value and
// DefaultValue are independent; Effective falls back from one to the other.
type Parameter struct {
	Name         string
	Column       string
	Type         schema.DataType
	DefaultValue []string
	Value        []string
}

// Effective returns Value when it holds anything, otherwise DefaultValue.
func (p *Parameter) Effective() []string {
	if len(p.Value) > 0 {
		return p.Value
	}
	return p.DefaultValue
}

// RefName is the name a formula uses to reference the parameter.
func (p *Parameter) RefName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Column
}

// Parameter finds a parameter by explicit name first, then by bound column.
func (r *Request) Parameter(name string) (*Parameter, bool) {
	if i := slices.IndexFunc(r.Parameters, func(p Parameter) bool { return p.Name == name }); i >= 0 {
		return &r.Parameters[i], true
	}
	if i := slices.IndexFunc(r.Parameters, func(p Parameter) bool { return p.Column == name }); i >= 0 {
		return &r.Parameters[i], true
	}
	return nil, false
}
