package result

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

const (
	cellNull    = "null"
	cellString  = "string"
	cellInteger = "integer"
	cellDecimal = "decimal"
	cellBoolean = "boolean"
)

type xmlResultSet struct {
	XMLName           xml.Name    `xml:"resultset"`
	RowHeaderCount    int         `xml:"rowHeaderCount,attr"`
	ColumnHeaderCount int         `xml:"columnHeaderCount,attr"`
	Columns           []xmlColumn `xml:"columns>column"`
	Rows              []xmlRow    `xml:"rows>row"`
}

type xmlColumn struct {
	Type string `xml:"type,attr"`
	Name string `xml:",chardata"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"cell"`
}

type xmlCell struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

func (rs *ResultSet) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	out := xmlResultSet{
		RowHeaderCount:    rs.RowHeaderCount,
		ColumnHeaderCount: rs.ColumnHeaderCount,
		Columns:           make([]xmlColumn, len(rs.ColumnNames)),
		Rows:              make([]xmlRow, len(rs.Rows)),
	}
	for i, name := range rs.ColumnNames {
		out.Columns[i] = xmlColumn{Name: name}
		if i < len(rs.ColumnTypes) {
			out.Columns[i].Type = rs.ColumnTypes[i]
		}
	}
	for i, row := range rs.Rows {
		cells := make([]xmlCell, len(row))
		for j, v := range row {
			cell, err := toXMLCell(v)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = cell
		}
		out.Rows[i] = xmlRow{Cells: cells}
	}
	return e.Encode(out)
}

func (rs *ResultSet) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var in xmlResultSet
	if err := d.DecodeElement(&in, &start); err != nil {
		return err
	}

	out := ResultSet{
		ColumnNames:       make([]string, len(in.Columns)),
		ColumnTypes:       make([]string, len(in.Columns)),
		Rows:              make([][]any, len(in.Rows)),
		RowHeaderCount:    in.RowHeaderCount,
		ColumnHeaderCount: in.ColumnHeaderCount,
	}
	for i, c := range in.Columns {
		out.ColumnNames[i] = c.Name
		out.ColumnTypes[i] = c.Type
	}
	for i, row := range in.Rows {
		cells := make([]any, len(row.Cells))
		for j, c := range row.Cells {
			v, err := fromXMLCell(c)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = v
		}
		out.Rows[i] = cells
	}
	*rs = out
	return nil
}

func toXMLCell(v any) (xmlCell, error) {
	switch v := v.(type) {
	case nil:
		return xmlCell{Type: cellNull}, nil
	case string:
		return xmlCell{Type: cellString, Value: v}, nil
	case int64:
		return xmlCell{Type: cellInteger, Value: strconv.FormatInt(v, 10)}, nil
	case float64:
		return xmlCell{Type: cellDecimal, Value: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case bool:
		return xmlCell{Type: cellBoolean, Value: strconv.FormatBool(v)}, nil
	}
	return xmlCell{}, fmt.Errorf("unsupported cell type %T", v)
}

func fromXMLCell(c xmlCell) (any, error) {
	switch c.Type {
	case cellNull:
		return nil, nil
	case cellString:
		return c.Value, nil
	case cellInteger:
		return strconv.ParseInt(c.Value, 10, 64)
	case cellDecimal:
		return strconv.ParseFloat(c.Value, 64)
	case cellBoolean:
		return strconv.ParseBool(c.Value)
	}
	return nil, fmt.Errorf("unknown cell type %q", c.Type)
}
