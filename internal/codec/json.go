package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/schema"
)

// jsonQuery is the JSON query form. Keys it does not name, such as class
// hints or column display metadata, are ignored on input.
type jsonQuery struct {
	DomainName      string          `json:"domainName"`
	ModelID         string          `json:"modelId"`
	DisableDistinct bool            `json:"disableDistinct"`
	Limit           *int            `json:"limit,omitempty"`
	Columns         []jsonColumn    `json:"columns"`
	Conditions      []jsonCondition `json:"conditions"`
	Orders          []jsonOrder     `json:"orders"`
	Parameters      []jsonParameter `json:"parameters"`
}

type jsonColumn struct {
	Category        string                 `json:"category"`
	ID              string                 `json:"id"`
	SelectedAggType schema.AggregationType `json:"selectedAggType,omitempty"`
}

type jsonCondition struct {
	Category        string                 `json:"category"`
	Column          string                 `json:"column"`
	CombinationType query.CombinationType  `json:"combinationType"`
	Operator        query.Operator         `json:"operator"`
	Value           []string               `json:"value"`
	Parameterized   bool                   `json:"parameterized,omitempty"`
	SelectedAggType schema.AggregationType `json:"selectedAggType,omitempty"`
}

type jsonOrder struct {
	Category        string                 `json:"category"`
	Column          string                 `json:"column"`
	OrderType       string                 `json:"orderType"`
	SelectedAggType schema.AggregationType `json:"selectedAggType,omitempty"`
}

type jsonParameter struct {
	Name         string          `json:"name,omitempty"`
	Column       string          `json:"column,omitempty"`
	Type         schema.DataType `json:"type,omitempty"`
	DefaultValue []string        `json:"defaultValue"`
	Value        []string        `json:"value,omitempty"`
}

// DecodeJSON reads a JSON query document.
func DecodeJSON(r io.Reader) (*query.Request, error) {
	var doc jsonQuery
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &DecodeError{Format: "json", Err: err}
	}

	req := &query.Request{
		DomainID:        doc.DomainName,
		ModelID:         doc.ModelID,
		DisableDistinct: doc.DisableDistinct,
		Limit:           doc.Limit,
	}
	for _, c := range doc.Columns {
		req.Selections = append(req.Selections, query.Selection{Category: c.Category, Column: c.ID, AggType: c.SelectedAggType})
	}
	for _, c := range doc.Conditions {
		ct := c.CombinationType
		if ct == "" {
			ct = query.CombineAnd
		}
		op := c.Operator
		if op == "" {
			op = query.OpEqual
		}
		req.Conditions = append(req.Conditions, query.Condition{
			Category:        c.Category,
			Column:          c.Column,
			Operator:        op,
			Value:           c.Value,
			CombinationType: ct,
			SelectedAggType: c.SelectedAggType,
			Parameterized:   c.Parameterized,
		})
	}
	for i, o := range doc.Orders {
		dir, err := query.ParseDirection(o.OrderType)
		if err != nil {
			return nil, &DecodeError{Format: "json", Err: fmt.Errorf("order %d: %w", i, err)}
		}
		req.Orders = append(req.Orders, query.Order{
			Category:  o.Category,
			Column:    o.Column,
			Direction: dir,
			AggType:   o.SelectedAggType,
		})
	}
	for _, p := range doc.Parameters {
		req.Parameters = append(req.Parameters, query.Parameter{
			Name:         p.Name,
			Column:       p.Column,
			Type:         p.Type,
			DefaultValue: p.DefaultValue,
			Value:        p.Value,
		})
	}
	return req, nil
}

// EncodeJSON writes req as an indented JSON query document.
func EncodeJSON(req *query.Request) ([]byte, error) {
	doc := jsonQuery{
		DomainName:      req.DomainID,
		ModelID:         req.ModelID,
		DisableDistinct: req.DisableDistinct,
		Limit:           req.Limit,
		Columns:         make([]jsonColumn, 0, len(req.Selections)),
		Conditions:      make([]jsonCondition, 0, len(req.Conditions)),
		Orders:          make([]jsonOrder, 0, len(req.Orders)),
		Parameters:      make([]jsonParameter, 0, len(req.Parameters)),
	}
	for _, s := range req.Selections {
		doc.Columns = append(doc.Columns, jsonColumn{Category: s.Category, ID: s.Column, SelectedAggType: s.AggType})
	}
	for _, c := range req.Conditions {
		if c.Expression != "" {
			return nil, fmt.Errorf("condition %q has no JSON form", c.Expression)
		}
		doc.Conditions = append(doc.Conditions, jsonCondition{
			Category:        c.Category,
			Column:          c.Column,
			CombinationType: c.CombinationType,
			Operator:        c.Operator,
			Value:           c.Value,
			Parameterized:   c.Parameterized,
			SelectedAggType: c.SelectedAggType,
		})
	}
	for _, o := range req.Orders {
		dir := o.Direction
		if dir == "" {
			dir = query.Asc
		}
		doc.Orders = append(doc.Orders, jsonOrder{Category: o.Category, Column: o.Column, OrderType: string(dir), SelectedAggType: o.AggType})
	}
	for _, p := range req.Parameters {
		doc.Parameters = append(doc.Parameters, jsonParameter{
			Name:         p.Name,
			Column:       p.Column,
			Type:         p.Type,
			DefaultValue: p.DefaultValue,
			Value:        p.Value,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json query: %w", err)
	}
	return append(data, '\n'), nil
}
