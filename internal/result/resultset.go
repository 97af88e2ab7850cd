// Package result turns raw executor output into result sets and encodes
// them for clients.
package result

import (
	"database/sql/driver"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atlekbai/metaquery/internal/compiler"
	"github.com/atlekbai/metaquery/internal/schema"
	"github.com/atlekbai/metaquery/internal/source"
)

// ResultSet is a flat table of typed cells. Cells hold nil, string, int64,
// float64 or bool.
type ResultSet struct {
	ColumnNames       []string
	ColumnTypes       []string
	Rows              [][]any
	RowHeaderCount    int
	ColumnHeaderCount int
}

// RowCount returns the number of rows.
func (rs *ResultSet) RowCount() int { return len(rs.Rows) }

// Shape builds the result set for plan from raw. Column names are the
// selected column ids and types are their business types.
func Shape(plan *compiler.Plan, raw *source.RawResult) (*ResultSet, error) {
	if len(raw.Columns) != len(plan.Selections) {
		return nil, fmt.Errorf("result has %d columns, plan selects %d", len(raw.Columns), len(plan.Selections))
	}

	rs := &ResultSet{
		ColumnNames: make([]string, len(plan.Selections)),
		ColumnTypes: make([]string, len(plan.Selections)),
		Rows:        make([][]any, 0, len(raw.Rows)),
	}
	for i, sel := range plan.Selections {
		rs.ColumnNames[i] = sel.Alias()
		rs.ColumnTypes[i] = columnType(sel)
	}

	for n, row := range raw.Rows {
		if len(row) != len(rs.ColumnNames) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", n, len(row), len(rs.ColumnNames))
		}
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = Normalize(v)
		}
		rs.Rows = append(rs.Rows, cells)
	}
	return rs, nil
}

func columnType(sel compiler.Selection) string {
	if sel.Agg == schema.AggCount || sel.Agg == schema.AggCountDistinct {
		return schema.DataTypeNumeric.ResultTag()
	}
	return sel.Column.Type.ResultTag()
}

// Normalize converts a driver value to one of the cell types.
func Normalize(v any) any {
	switch v := v.(type) {
	case nil, string, int64, float64, bool:
		return v
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return strconv.FormatUint(v, 10)
		}
		return int64(v)
	case float32:
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		return f
	case time.Time:
		return formatTime(v)
	case *big.Int:
		if v.IsInt64() {
			return v.Int64()
		}
		return v.String()
	case pgtype.Numeric:
		return numeric(v)
	case [16]byte:
		return uuid.UUID(v).String()
	case driver.Valuer:
		inner, err := v.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return Normalize(inner)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// numeric keeps a decimal as int64 or float64 when that is exact and as its
// decimal text otherwise.
func numeric(n pgtype.Numeric) any {
	if !n.Valid || n.NaN {
		return nil
	}
	if n.InfinityModifier != pgtype.Finite {
		return n.InfinityModifier.String()
	}
	text := decimalText(n)
	if !strings.Contains(text, ".") {
		i, ok := new(big.Int).SetString(text, 10)
		if ok && i.IsInt64() {
			return i.Int64()
		}
		return text
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || strconv.FormatFloat(f, 'f', -1, 64) != text {
		return text
	}
	return f
}

// decimalText renders n without exponent or trailing fractional zeros.
func decimalText(n pgtype.Numeric) string {
	i := n.Int
	if i == nil {
		i = new(big.Int)
	}
	if n.Exp >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)
		return new(big.Int).Mul(i, scale).String()
	}

	digits := new(big.Int).Abs(i).String()
	scale := int(-n.Exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-scale], strings.TrimRight(digits[len(digits)-scale:], "0")

	text := whole
	if frac != "" {
		text += "." + frac
	}
	if i.Sign() < 0 && text != "0" {
		text = "-" + text
	}
	return text
}

// formatTime renders midnight UTC values as dates and everything else as
// RFC 3339 timestamps.
func formatTime(t time.Time) string {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}
