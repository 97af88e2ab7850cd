package query

import (
	"fmt"
	"strings"
)

// Operator is the comparison a condition applies to its column.
type Operator string

const (
	OpEqual              Operator = "EQUAL"
	OpNotEqual           Operator = "NOT_EQUAL"
	OpGreaterThan        Operator = "GREATER_THAN"
	OpLessThan           Operator = "LESS_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OpInList             Operator = "IN_LIST"
	OpExactlyMatches     Operator = "EXACTLY_MATCHES"
	OpContains           Operator = "CONTAINS"
	OpDoesNotContain     Operator = "DOES_NOT_CONTAIN"
	OpBeginsWith         Operator = "BEGINS_WITH"
	OpEndsWith           Operator = "ENDS_WITH"
	OpIsNull             Operator = "IS_NULL"
	OpIsNotNull          Operator = "IS_NOT_NULL"
)

var operators = []Operator{
	OpEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
	OpInList, OpExactlyMatches, OpContains, OpDoesNotContain, OpBeginsWith, OpEndsWith,
	OpIsNull, OpIsNotNull,
}

// symbols maps comparison operators to their formula form. Operators not
// listed here render as function calls.
var symbols = map[Operator]string{
	OpEqual:              "=",
	OpNotEqual:           "<>",
	OpGreaterThan:        ">",
	OpLessThan:           "<",
	OpGreaterThanOrEqual: ">=",
	OpLessThanOrEqual:    "<=",
	OpExactlyMatches:     "=",
}

func ParseOperator(s string) (Operator, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if norm == "" {
		return OpEqual, nil
	}
	for _, op := range operators {
		if string(op) == norm {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

func (o *Operator) UnmarshalText(b []byte) error {
	op, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Symbol returns the comparison symbol, or "" for function-style operators.
func (o Operator) Symbol() string {
	return symbols[o]
}

// CombinationType is how a condition joins the conditions before it.
type CombinationType string

const (
	CombineAnd    CombinationType = "AND"
	CombineOr     CombinationType = "OR"
	CombineAndNot CombinationType = "AND_NOT"
	CombineOrNot  CombinationType = "OR_NOT"
)

// ParseCombinationType accepts both "AND_NOT" and "AND NOT" spellings. An
// empty string is AND.
func ParseCombinationType(s string) (CombinationType, error) {
	norm := strings.Join(strings.Fields(strings.ToUpper(s)), "_")
	switch CombinationType(norm) {
	case "":
		return CombineAnd, nil
	case CombineAnd, CombineOr, CombineAndNot, CombineOrNot:
		return CombinationType(norm), nil
	}
	return "", fmt.Errorf("unknown combination type %q", s)
}

func (c *CombinationType) UnmarshalText(b []byte) error {
	ct, err := ParseCombinationType(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// Negated reports whether the condition is negated before combining.
func (c CombinationType) Negated() bool {
	return c == CombineAndNot || c == CombineOrNot
}

// Disjunctive reports whether the condition joins with OR.
func (c CombinationType) Disjunctive() bool {
	return c == CombineOr || c == CombineOrNot
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}
