// Package codec reads and writes query documents: the MQL XML dialect and
// the JSON query form.
package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/atlekbai/metaquery/internal/query"
	"github.com/atlekbai/metaquery/internal/schema"
)

// DecodeError reports a document that could not be read as a query.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s query: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// valueSeparator joins multi-valued parameter defaults in MQL attributes.
const valueSeparator = "|"

type mqlDocument struct {
	XMLName     xml.Name        `xml:"mql"`
	DomainID    string          `xml:"domain_id"`
	ModelID     string          `xml:"model_id"`
	Options     mqlOptions      `xml:"options"`
	Parameters  *mqlParameters  `xml:"parameters"`
	Selections  []mqlSelection  `xml:"selections>selection"`
	Constraints []mqlConstraint `xml:"constraints>constraint"`
	Orders      []mqlOrder      `xml:"orders>order"`
}

type mqlOptions struct {
	DisableDistinct bool `xml:"disable_distinct"`
	Limit           *int `xml:"limit,omitempty"`
}

type mqlParameters struct {
	Items []mqlParameter `xml:"parameter"`
}

type mqlParameter struct {
	Name         string          `xml:"name,attr"`
	Type         schema.DataType `xml:"type,attr,omitempty"`
	DefaultValue string          `xml:"defaultValue,attr,omitempty"`
}

type mqlSelection struct {
	View        string                 `xml:"view"`
	Column      string                 `xml:"column"`
	Aggregation schema.AggregationType `xml:"aggregation"`
}

type mqlConstraint struct {
	Operator  string   `xml:"operator"`
	Condition mqlCDATA `xml:"condition"`
}

type mqlCDATA struct {
	Text string `xml:",cdata"`
}

type mqlOrder struct {
	Direction   string                 `xml:"direction"`
	ViewID      string                 `xml:"view_id"`
	ColumnID    string                 `xml:"column_id"`
	Aggregation schema.AggregationType `xml:"aggregation,omitempty"`
}

// DecodeXML reads an MQL document. Constraint conditions are kept as
// formulas and resolved by the compiler.
func DecodeXML(r io.Reader) (*query.Request, error) {
	var doc mqlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &DecodeError{Format: "xml", Err: err}
	}

	req := &query.Request{
		DomainID:        strings.TrimSpace(doc.DomainID),
		ModelID:         strings.TrimSpace(doc.ModelID),
		DisableDistinct: doc.Options.DisableDistinct,
		Limit:           doc.Options.Limit,
	}
	var params []mqlParameter
	if doc.Parameters != nil {
		params = doc.Parameters.Items
	}
	for _, p := range params {
		param := query.Parameter{Name: p.Name, Type: p.Type}
		if p.DefaultValue != "" {
			param.DefaultValue = strings.Split(p.DefaultValue, valueSeparator)
		}
		req.Parameters = append(req.Parameters, param)
	}
	for _, s := range doc.Selections {
		req.Selections = append(req.Selections, query.Selection{
			Category: strings.TrimSpace(s.View),
			Column:   strings.TrimSpace(s.Column),
			AggType:  s.Aggregation,
		})
	}
	for i, c := range doc.Constraints {
		ct, err := query.ParseCombinationType(c.Operator)
		if err != nil {
			return nil, &DecodeError{Format: "xml", Err: fmt.Errorf("constraint %d: %w", i, err)}
		}
		req.Conditions = append(req.Conditions, query.Condition{
			Expression:      strings.TrimSpace(c.Condition.Text),
			CombinationType: ct,
		})
	}
	for i, o := range doc.Orders {
		dir, err := query.ParseDirection(o.Direction)
		if err != nil {
			return nil, &DecodeError{Format: "xml", Err: fmt.Errorf("order %d: %w", i, err)}
		}
		req.Orders = append(req.Orders, query.Order{
			Category:  strings.TrimSpace(o.ViewID),
			Column:    strings.TrimSpace(o.ColumnID),
			Direction: dir,
			AggType:   o.Aggregation,
		})
	}
	return req, nil
}

// EncodeXML writes req as an MQL document. Structured conditions are
// rendered with the data types of model's columns; model may be nil, in
// which case values are written as strings.
func EncodeXML(req *query.Request, model *schema.Model) ([]byte, error) {
	doc := mqlDocument{
		DomainID: req.DomainID,
		ModelID:  req.ModelID,
		Options:  mqlOptions{DisableDistinct: req.DisableDistinct, Limit: req.Limit},
	}
	if len(req.Parameters) > 0 {
		doc.Parameters = &mqlParameters{}
		for _, p := range req.Parameters {
			doc.Parameters.Items = append(doc.Parameters.Items, mqlParameter{
				Name:         p.RefName(),
				Type:         p.Type,
				DefaultValue: strings.Join(p.Effective(), valueSeparator),
			})
		}
	}
	for _, s := range req.Selections {
		doc.Selections = append(doc.Selections, mqlSelection{View: s.Category, Column: s.Column, Aggregation: s.AggType})
	}
	for _, c := range req.Conditions {
		dt := schema.DataTypeUnknown
		if model != nil {
			if col := model.Column(c.Category, c.Column); col != nil {
				dt = col.Type
			}
		}
		ct := c.CombinationType
		if ct == "" {
			ct = query.CombineAnd
		}
		doc.Constraints = append(doc.Constraints, mqlConstraint{
			Operator:  strings.ReplaceAll(string(ct), "_", " "),
			Condition: mqlCDATA{Text: c.Compile(dt)},
		})
	}
	for _, o := range req.Orders {
		dir := o.Direction
		if dir == "" {
			dir = query.Asc
		}
		doc.Orders = append(doc.Orders, mqlOrder{
			Direction:   string(dir),
			ViewID:      o.Category,
			ColumnID:    o.Column,
			Aggregation: o.AggType,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode mql: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
