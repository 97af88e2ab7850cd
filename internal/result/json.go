package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type jsonResultSet struct {
	Columns           []string `json:"columns"`
	ColumnTypes       []string `json:"columnTypes"`
	Rows              [][]any  `json:"rows"`
	RowHeaderCount    int      `json:"rowHeaderCount"`
	ColumnHeaderCount int      `json:"columnHeaderCount"`
}

// MarshalJSON writes floats with a decimal point so that they decode back
// as floats rather than integers.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	out := jsonResultSet{
		Columns:           nonNil(rs.ColumnNames),
		ColumnTypes:       nonNil(rs.ColumnTypes),
		Rows:              make([][]any, len(rs.Rows)),
		RowHeaderCount:    rs.RowHeaderCount,
		ColumnHeaderCount: rs.ColumnHeaderCount,
	}
	for i, row := range rs.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cell, err := jsonCell(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = cell
		}
		out.Rows[i] = cells
	}
	return json.Marshal(out)
}

func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	var in jsonResultSet
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return err
	}

	rows := make([][]any, len(in.Rows))
	for i, row := range in.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cell, err := fromJSONCell(v)
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = cell
		}
		rows[i] = cells
	}

	*rs = ResultSet{
		ColumnNames:       in.Columns,
		ColumnTypes:       in.ColumnTypes,
		Rows:              rows,
		RowHeaderCount:    in.RowHeaderCount,
		ColumnHeaderCount: in.ColumnHeaderCount,
	}
	return nil
}

func jsonCell(v any) (any, error) {
	f, ok := v.(float64)
	if !ok {
		return v, nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("cannot encode %v", f)
	}
	return json.Number(formatFloat(f)), nil
}

func fromJSONCell(v any) (any, error) {
	n, ok := v.(json.Number)
	if !ok {
		return v, nil
	}
	if strings.ContainsAny(n.String(), ".eE") {
		return n.Float64()
	}
	return n.Int64()
}

// formatFloat renders f in its shortest exact form, always marked as a
// decimal.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
