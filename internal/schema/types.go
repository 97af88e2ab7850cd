package schema

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Domain groups the business models that share one physical source.
type Domain struct {
	ID         string   `yaml:"id" json:"id"`
	Connection string   `yaml:"connection" json:"connection,omitempty"`
	Models     []*Model `yaml:"models" json:"models"`
}

// Model is a business model: categories of columns mapped onto physical tables.
type Model struct {
	DomainID      string                `yaml:"-" json:"domainId"`
	ID            string                `yaml:"id" json:"id"`
	Name          string                `yaml:"name" json:"name"`
	Description   string                `yaml:"description" json:"description,omitempty"`
	Categories    Optional[[]*Category] `yaml:"categories" json:"categories"`
	Tables        []*PhysicalTable      `yaml:"tables" json:"-"`
	Relationships []Relationship        `yaml:"relationships" json:"-"`
	Connection    string                `yaml:"-" json:"-"`
}

type Category struct {
	ID      string    `yaml:"id" json:"id"`
	Name    string    `yaml:"name" json:"name"`
	Columns []*Column `yaml:"columns" json:"columns"`
}

type Column struct {
	ID             string            `yaml:"id" json:"id"`
	Name           string            `yaml:"name" json:"name"`
	Type           DataType          `yaml:"type" json:"type"`
	FieldType      FieldType         `yaml:"field_type" json:"fieldType"`
	DefaultAggType AggregationType   `yaml:"default_agg" json:"defaultAggType"`
	AggTypes       []AggregationType `yaml:"agg_types" json:"aggTypes"`
	FormatMask     *string           `yaml:"format_mask" json:"formatMask,omitempty"`
	Alignment      Alignment         `yaml:"alignment" json:"horizontalAlignment"`

	// Table is the id of the PhysicalTable holding the column; Expr is the
	// physical column name inside it.
	Table string `yaml:"table" json:"-"`
	Expr  string `yaml:"expr" json:"-"`
}

// PhysicalTable maps a table id used by columns and relationships to a
// physical table name, optionally schema-qualified.
type PhysicalTable struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Relationship struct {
	From       string   `yaml:"from"`
	FromColumn string   `yaml:"from_column"`
	To         string   `yaml:"to"`
	ToColumn   string   `yaml:"to_column"`
	Join       JoinType `yaml:"join"`
}

// ModelSummary is the listing form of a Model.
type ModelSummary struct {
	DomainID    string `json:"domainId"`
	ModelID     string `json:"modelId"`
	Name        string `json:"modelName"`
	Description string `json:"modelDescription"`
}

func (m *Model) Summary() ModelSummary {
	return ModelSummary{DomainID: m.DomainID, ModelID: m.ID, Name: m.Name, Description: m.Description}
}

// Category finds a category by id.
func (m *Model) Category(id string) *Category {
	for _, c := range m.Categories.OrZero() {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Column resolves a column by category and column id.
func (m *Model) Column(categoryID, columnID string) *Column {
	cat := m.Category(categoryID)
	if cat == nil {
		return nil
	}
	return cat.Column(columnID)
}

// FindColumn resolves a column id across all categories, returning the
// first category that declares it.
func (m *Model) FindColumn(columnID string) (*Category, *Column) {
	for _, c := range m.Categories.OrZero() {
		if col := c.Column(columnID); col != nil {
			return c, col
		}
	}
	return nil, nil
}

func (m *Model) Table(id string) *PhysicalTable {
	for _, t := range m.Tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Equal compares id, name and categories. An unset category list is not
// equal to an empty one.
func (m *Model) Equal(o *Model) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	if m.ID != o.ID || m.Name != o.Name {
		return false
	}
	mc, mSet := m.Categories.Get()
	oc, oSet := o.Categories.Get()
	if mSet != oSet {
		return false
	}
	return slices.EqualFunc(mc, oc, (*Category).Equal)
}

func (c *Category) Column(id string) *Column {
	for _, col := range c.Columns {
		if col.ID == id {
			return col
		}
	}
	return nil
}

func (c *Category) Equal(o *Category) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.ID == o.ID && c.Name == o.Name && slices.EqualFunc(c.Columns, o.Columns, (*Column).Equal)
}

func (c *Column) Equal(o *Column) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if (c.FormatMask == nil) != (o.FormatMask == nil) {
		return false
	}
	if c.FormatMask != nil && *c.FormatMask != *o.FormatMask {
		return false
	}
	return c.ID == o.ID &&
		c.Name == o.Name &&
		c.Type == o.Type &&
		c.FieldType == o.FieldType &&
		c.DefaultAggType == o.DefaultAggType &&
		slices.Equal(c.AggTypes, o.AggTypes) &&
		c.Alignment == o.Alignment &&
		c.Table == o.Table &&
		c.Expr == o.Expr
}

// Permits reports whether agg is one of the column's permitted aggregations.
func (c *Column) Permits(agg AggregationType) bool {
	return mapset.NewThreadUnsafeSet(c.AggTypes...).Contains(agg)
}
