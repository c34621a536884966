// SPDX-License-Identifier: Apache-2.0

// Package types defines the canonical logical-type system and the schema,
// column and contract shapes shared by every stage of the analysis pipeline.
package types

import "fmt"

// LogicalType is the portable type every warehouse/dialect type is mapped
// onto before schema inference and contract comparison run. It is a closed
// tagged union: adding a variant is a deliberate source change that forces
// every switch over Kind to be revisited.
type LogicalType struct {
	Kind Kind

	// Precision/Scale are only meaningful when Kind == Decimal. Either may
	// be nil when unknown (bare NUMERIC, or NUMERIC(p) for Scale).
	Precision *uint16
	Scale     *uint16

	// Fields is only meaningful when Kind == Struct.
	Fields []Column

	// Element is only meaningful when Kind == Array.
	Element *LogicalType
}

// Kind enumerates the LogicalType variants.
type Kind string

const (
	Bool      Kind = "bool"
	Int       Kind = "int"
	Float     Kind = "float"
	Decimal   Kind = "decimal"
	String    Kind = "string"
	Date      Kind = "date"
	Timestamp Kind = "timestamp"
	Json      Kind = "json"
	Struct    Kind = "struct"
	Array     Kind = "array"
	Unknown   Kind = "unknown"
)

func simple(k Kind) LogicalType { return LogicalType{Kind: k} }

func NewBool() LogicalType      { return simple(Bool) }
func NewInt() LogicalType       { return simple(Int) }
func NewFloat() LogicalType     { return simple(Float) }
func NewString() LogicalType    { return simple(String) }
func NewDate() LogicalType      { return simple(Date) }
func NewTimestamp() LogicalType { return simple(Timestamp) }
func NewJson() LogicalType      { return simple(Json) }
func NewUnknown() LogicalType   { return simple(Unknown) }

// NewDecimal builds a Decimal logical type. Either argument may be nil.
func NewDecimal(precision, scale *uint16) LogicalType {
	return LogicalType{Kind: Decimal, Precision: precision, Scale: scale}
}

// NewStruct builds a Struct logical type with the given fields.
func NewStruct(fields []Column) LogicalType {
	return LogicalType{Kind: Struct, Fields: fields}
}

// NewArray builds an Array logical type with the given element type.
func NewArray(element LogicalType) LogicalType {
	return LogicalType{Kind: Array, Element: &element}
}

// U16 is a small helper for building *uint16 literals in tests and dialect
// mapping tables.
func U16(v uint16) *uint16 { return &v }

// String renders the type the way diagnostics and reports display it:
// SCREAMING_SNAKE_CASE, with DECIMAL carrying precision/scale when known.
func (t LogicalType) String() string {
	switch t.Kind {
	case Bool:
		return "BOOL"
	case Int:
		return "INT"
	case Float:
		return "FLOAT"
	case Decimal:
		switch {
		case t.Precision != nil && t.Scale != nil:
			return fmt.Sprintf("DECIMAL(%d, %d)", *t.Precision, *t.Scale)
		case t.Precision != nil:
			return fmt.Sprintf("DECIMAL(%d)", *t.Precision)
		default:
			return "DECIMAL"
		}
	case String:
		return "STRING"
	case Date:
		return "DATE"
	case Timestamp:
		return "TIMESTAMP"
	case Json:
		return "JSON"
	case Struct:
		return "STRUCT"
	case Array:
		return "ARRAY"
	default:
		return "UNKNOWN"
	}
}

// Equal reports structural equality, used by drift's strict comparison.
func (t LogicalType) Equal(other LogicalType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case Decimal:
		return u16Eq(t.Precision, other.Precision) && u16Eq(t.Scale, other.Scale)
	case Array:
		if t.Element == nil || other.Element == nil {
			return t.Element == other.Element
		}
		return t.Element.Equal(*other.Element)
	case Struct:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != other.Fields[i].Name || !t.Fields[i].LogicalType.Equal(other.Fields[i].LogicalType) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func u16Eq(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Nullability expresses how confidently a column's nullability is known.
type Nullability string

const (
	NullableYes     Nullability = "yes"
	NullableNo      Nullability = "no"
	NullableUnknown Nullability = "unknown"
)

// ColumnRef records where an inferred column's value came from.
type ColumnRef struct {
	SourceName string
	ColumnName string
}

// Column is one entry in a Schema.
type Column struct {
	Name        string
	LogicalType LogicalType
	Nullable    Nullability
	Provenance  []ColumnRef
}

// NewColumn builds a Column with unknown nullability and no provenance.
func NewColumn(name string, t LogicalType) Column {
	return Column{Name: name, LogicalType: t, Nullable: NullableUnknown}
}

// Schema is an ordered sequence of columns. Order is semantically
// significant (it is the positional expansion of SELECT *); name lookup is
// by exact, case-sensitive match.
type Schema struct {
	Columns []Column
}

// NewSchema builds a Schema from an ordered column slice.
func NewSchema(columns ...Column) Schema {
	return Schema{Columns: columns}
}

// Find looks up a column by exact name match.
func (s Schema) Find(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the schema's column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// EnforcementPolicy controls how lenient contract diffing is for a single
// contract.
type EnforcementPolicy struct {
	AllowExtraColumns bool
	AllowWidening     bool
}

// Contract is a declared output schema a model promises to produce.
type Contract struct {
	Schema   Schema
	Policy   EnforcementPolicy
	Enforced bool
}
