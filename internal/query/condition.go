package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/atlekbai/metaquery/internal/schema"
)

// Condition filters on one column. When Parameterized is set, Value[0] names
// the parameter (or the column it is bound to) instead of holding a literal.
//
// Expression, when non-empty, is a free-form formula used verbatim; the
// structured fields are then ignored apart from CombinationType.
type Condition struct {
	Category        string
	Column          string
	Operator        Operator
	Value           []string
	CombinationType CombinationType
	SelectedAggType schema.AggregationType
	Parameterized   bool
	Expression      string
}

// Ref renders the column reference, qualified by the aggregation when one
// is selected.
func (c *Condition) Ref() string {
	if c.SelectedAggType.IsAggregate() {
		return "[" + c.Category + "." + c.Column + "." + string(c.SelectedAggType) + "]"
	}
	return "[" + c.Category + "." + c.Column + "]"
}

// Compile renders the condition for execution: a parameter reference when
// parameterized, a literal otherwise.
func (c *Condition) Compile(dt schema.DataType) string {
	if c.Expression != "" {
		return c.Expression
	}
	if c.Parameterized && len(c.Value) > 0 {
		return c.Formula(dt, c.Value[0])
	}
	return c.Formula(dt, "")
}

// Formula renders the condition in the formula language. A non-empty
// paramName produces the symbolic [param:NAME] form regardless of the
// Parameterized flag.
func (c *Condition) Formula(dt schema.DataType, paramName string) string {
	ref := c.Ref()
	switch c.Operator {
	case OpIsNull:
		return "ISNA(" + ref + ")"
	case OpIsNotNull:
		return "NOT(ISNA(" + ref + "))"
	}

	var terms []string
	if paramName != "" {
		terms = []string{valueTerm(dt, "[param:"+paramName+"]")}
	} else {
		values := c.Value
		if len(values) == 0 {
			values = []string{""}
		}
		for _, v := range values {
			terms = append(terms, Literal(dt, v))
		}
	}

	op := c.Operator
	if op == "" {
		op = OpEqual
	}
	if sym := op.Symbol(); sym != "" {
		if len(terms) > 1 {
			switch op {
			case OpEqual, OpExactlyMatches:
				return call("IN", ref, terms...)
			case OpNotEqual:
				return "NOT(" + call("IN", ref, terms...) + ")"
			}
		}
		if dt == schema.DataTypeDate {
			return ref + " " + sym + terms[0]
		}
		return ref + " " + sym + " " + terms[0]
	}

	switch op {
	case OpInList:
		return call("IN", ref, terms...)
	case OpContains:
		return call("CONTAINS", ref, terms[0])
	case OpDoesNotContain:
		return "NOT(" + call("CONTAINS", ref, terms[0]) + ")"
	case OpBeginsWith:
		return call("BEGINSWITH", ref, terms[0])
	case OpEndsWith:
		return call("ENDSWITH", ref, terms[0])
	}
	return ref + " = " + terms[0]
}

// bareNumber is the number syntax the formula lexer reads. Other numeric
// spellings are quoted and converted when bound.
var bareNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Literal renders a single value for the given type.
func Literal(dt schema.DataType, v string) string {
	switch dt {
	case schema.DataTypeNumeric:
		if bareNumber.MatchString(v) {
			return v
		}
	case schema.DataTypeBoolean:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "TRUE()"
			}
			return "FALSE()"
		}
	case schema.DataTypeDate:
		return "DATEVALUE(" + Quote(v) + ")"
	}
	return Quote(v)
}

// Quote renders a string literal, doubling embedded quotes.
func Quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func valueTerm(dt schema.DataType, term string) string {
	if dt == schema.DataTypeDate {
		return "DATEVALUE(" + term + ")"
	}
	return term
}

func call(name, ref string, args ...string) string {
	return name + "(" + ref + ";" + strings.Join(args, ";") + ")"
}
