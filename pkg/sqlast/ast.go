// SPDX-License-Identifier: Apache-2.0

// Package sqlast defines the abstract syntax tree the parser produces and
// the inference engine walks. It intentionally represents only the subset
// of SQL the inference algorithm needs to reason about column shape:
// SELECT pipelines, CTEs, joins, set operations and a small expression
// grammar. Anything else collapses to OtherExpr/OtherStatement rather
// than growing the tree to cover every dialect's full grammar.
package sqlast

// Dialect selects which warehouse type-mapping table the inference engine
// uses. The parser accepts the same grammar, with no reserved-word set,
// under every dialect.
type Dialect string

const (
	ANSI       Dialect = "ansi"
	BigQuery   Dialect = "bigquery"
	PostgreSQL Dialect = "postgresql"
	Snowflake  Dialect = "snowflake"
)

// Statement is the top-level parse result. Only Query is meaningfully
// inferable; everything else the parser recognizes but declines to model
// (DDL, DML other than SELECT) is OtherStatement.
type Statement interface{ isStatement() }

// Query is a SELECT statement, optionally preceded by a WITH clause.
type Query struct {
	CTEs []CTE
	Body SetExpr
}

func (Query) isStatement() {}

// OtherStatement marks a parsed-but-unmodeled statement (e.g. INSERT,
// CREATE TABLE AS appearing in a model file).
type OtherStatement struct {
	Kind string
}

func (OtherStatement) isStatement() {}

// CTE is one WITH binding: `name AS (query)`.
type CTE struct {
	Name  string
	Query Query
}

// SetExpr is either a bare SELECT or a set operation combining two SetExprs.
type SetExpr interface{ isSetExpr() }

// Select is a single SELECT ... FROM ... WHERE ... GROUP BY ... block.
type Select struct {
	Projection []SelectItem
	From       []TableWithJoins
	GroupBy    []Expr
}

func (Select) isSetExpr() {}

// SetOperation combines two set expressions with UNION/INTERSECT/EXCEPT.
// Per the inference algorithm, only Left's schema is ever consulted.
type SetOperation struct {
	Op    SetOperator
	All   bool
	Left  SetExpr
	Right SetExpr
}

func (SetOperation) isSetExpr() {}

// SetOperator enumerates the supported set operations.
type SetOperator string

const (
	Union     SetOperator = "union"
	Intersect SetOperator = "intersect"
	Except    SetOperator = "except"
)

// SelectItem is one entry in a SELECT list.
type SelectItem interface{ isSelectItem() }

// UnnamedExpr is a projection item with no alias.
type UnnamedExpr struct{ Expr Expr }

func (UnnamedExpr) isSelectItem() {}

// AliasedExpr is `expr AS alias`.
type AliasedExpr struct {
	Expr  Expr
	Alias string
}

func (AliasedExpr) isSelectItem() {}

// Wildcard is a bare `*`.
type Wildcard struct{}

func (Wildcard) isSelectItem() {}

// QualifiedWildcard is `t.*`.
type QualifiedWildcard struct{ Qualifier string }

func (QualifiedWildcard) isSelectItem() {}

// TableWithJoins is a table factor plus any joins chained onto it; the
// first entry in a Select's From list is the source schema's seed, each
// subsequent entry (and each Join) is left-biased-merged onto it.
type TableWithJoins struct {
	Relation TableFactor
	Joins    []Join
}

// Join is one JOIN clause. The ON/USING condition is parsed and discarded:
// schema inference never needs it, only the joined relation.
type Join struct {
	Relation TableFactor
	Operator string // "inner", "left", "right", "full", "cross"
}

// TableFactor is a FROM-list entry: a named table or a derived subquery.
type TableFactor interface{ isTableFactor() }

// Table is a (possibly qualified) table reference, with an optional alias.
type Table struct {
	Name  CompoundIdentifier
	Alias string
}

func (Table) isTableFactor() {}

// Derived is a subquery in the FROM list; per resolution rules it must
// carry an alias.
type Derived struct {
	Query Query
	Alias string
}

func (Derived) isTableFactor() {}

// Expr is the expression grammar schema inference walks.
type Expr interface{ isExpr() }

// Identifier is a single unqualified name.
type Identifier struct{ Name string }

func (Identifier) isExpr() {}

// CompoundIdentifier is a dotted name, e.g. `t.col` or `db.schema.table`.
type CompoundIdentifier struct{ Parts []string }

func (CompoundIdentifier) isExpr() {}

// Last returns the final segment of a compound identifier, its surface
// column name.
func (c CompoundIdentifier) Last() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[len(c.Parts)-1]
}

// String joins the identifier's parts back into dotted form.
func (c CompoundIdentifier) String() string {
	out := c.Parts[0]
	for _, p := range c.Parts[1:] {
		out += "." + p
	}
	return out
}

// ValueKind enumerates literal kinds.
type ValueKind string

const (
	ValueInt    ValueKind = "int"
	ValueFloat  ValueKind = "float"
	ValueString ValueKind = "string"
	ValueBool   ValueKind = "bool"
	ValueNull   ValueKind = "null"
)

// Value is a literal.
type Value struct {
	Kind ValueKind
	Raw  string
}

func (Value) isExpr() {}

// Cast is `CAST(expr AS type)` or the `expr::type` shorthand.
type Cast struct {
	Expr       Expr
	TargetType string
}

func (Cast) isExpr() {}

// Function is a function-call expression.
type Function struct {
	Name string
	Args []Expr
}

func (Function) isExpr() {}

// BinaryOp is a two-operand operator expression.
type BinaryOp struct {
	Left  Expr
	Op    string
	Right Expr
}

func (BinaryOp) isExpr() {}

// Case is a CASE expression. Its result type is always Unknown per the
// inference rules, so its branches are not modeled.
type Case struct{}

func (Case) isExpr() {}

// OtherExpr marks a parsed-but-unmodeled expression form.
type OtherExpr struct{ Raw string }

func (OtherExpr) isExpr() {}
