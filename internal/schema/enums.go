package schema

import (
	"fmt"
	"strings"
)

// DataType is the semantic type of a business column.
type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeNumeric DataType = "NUMERIC"
	DataTypeDate    DataType = "DATE"
	DataTypeBoolean DataType = "BOOLEAN"
	DataTypeUnknown DataType = "UNKNOWN"
)

var dataTypes = []DataType{DataTypeString, DataTypeNumeric, DataTypeDate, DataTypeBoolean, DataTypeUnknown}

func ParseDataType(s string) (DataType, error) { return parseEnum("data type", s, dataTypes) }

func (d *DataType) UnmarshalText(b []byte) error { return unmarshalEnum(d, "data type", b, dataTypes) }

// ResultTag is the lowercase type name reported in result sets.
func (d DataType) ResultTag() string {
	if d == "" {
		return strings.ToLower(string(DataTypeUnknown))
	}
	return strings.ToLower(string(d))
}

// AggregationType is how a column's values combine across grouped rows.
type AggregationType string

const (
	AggNone          AggregationType = "NONE"
	AggSum           AggregationType = "SUM"
	AggAverage       AggregationType = "AVERAGE"
	AggCount         AggregationType = "COUNT"
	AggCountDistinct AggregationType = "COUNT_DISTINCT"
	AggMinimum       AggregationType = "MINIMUM"
	AggMaximum       AggregationType = "MAXIMUM"
)

var aggregationTypes = []AggregationType{AggNone, AggSum, AggAverage, AggCount, AggCountDistinct, AggMinimum, AggMaximum}

func ParseAggregationType(s string) (AggregationType, error) {
	return parseEnum("aggregation type", s, aggregationTypes)
}

func (a *AggregationType) UnmarshalText(b []byte) error {
	return unmarshalEnum(a, "aggregation type", b, aggregationTypes)
}

// IsAggregate reports whether a produces a grouped value.
func (a AggregationType) IsAggregate() bool {
	return a != "" && a != AggNone
}

// FieldType is the role a column plays in a query.
type FieldType string

const (
	FieldDimension FieldType = "DIMENSION"
	FieldFact      FieldType = "FACT"
	FieldAttribute FieldType = "ATTRIBUTE"
)

var fieldTypes = []FieldType{FieldDimension, FieldFact, FieldAttribute}

func ParseFieldType(s string) (FieldType, error) { return parseEnum("field type", s, fieldTypes) }

func (f *FieldType) UnmarshalText(b []byte) error {
	return unmarshalEnum(f, "field type", b, fieldTypes)
}

// Alignment is the horizontal display alignment of a column.
type Alignment string

const (
	AlignLeft   Alignment = "LEFT"
	AlignRight  Alignment = "RIGHT"
	AlignCenter Alignment = "CENTER"
)

var alignments = []Alignment{AlignLeft, AlignRight, AlignCenter}

func ParseAlignment(s string) (Alignment, error) { return parseEnum("alignment", s, alignments) }

func (a *Alignment) UnmarshalText(b []byte) error {
	return unmarshalEnum(a, "alignment", b, alignments)
}

// JoinType selects how a relationship joins its two tables.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT_OUTER"
)

var joinTypes = []JoinType{JoinInner, JoinLeft}

func ParseJoinType(s string) (JoinType, error) { return parseEnum("join type", s, joinTypes) }

func (j *JoinType) UnmarshalText(b []byte) error {
	return unmarshalEnum(j, "join type", b, joinTypes)
}

func parseEnum[T ~string](kind, s string, values []T) (T, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, v := range values {
		if string(v) == norm {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

func unmarshalEnum[T ~string](dst *T, kind string, b []byte, values []T) error {
	if len(b) == 0 {
		*dst = ""
		return nil
	}
	v, err := parseEnum(kind, string(b), values)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
