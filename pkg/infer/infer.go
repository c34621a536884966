// SPDX-License-Identifier: Apache-2.0

package infer

import (
	"strings"

	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/sqlparse"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// scope layers a query's WITH-bound CTE schemas over the ambient
// InferenceContext; CTE names shadow manifest/source names of the same
// spelling, matching ordinary SQL name resolution.
type scope struct {
	ctx  *InferenceContext
	ctes map[string]types.Schema
}

func (s scope) resolve(name string) (types.Schema, bool) {
	if sc, ok := s.ctes[name]; ok {
		return sc, true
	}
	return s.ctx.Lookup(name)
}

func (s scope) withCTE(name string, schema types.Schema) scope {
	next := make(map[string]types.Schema, len(s.ctes)+1)
	for k, v := range s.ctes {
		next[k] = v
	}
	next[name] = schema
	return scope{ctx: s.ctx, ctes: next}
}

// Infer computes the result Schema of a parsed statement. Only Query is
// supported; anything else (DDL/DML that sqlparse degraded to
// OtherStatement) yields an UnsupportedStatementError.
func Infer(stmt sqlast.Statement, ctx *InferenceContext, file string) (types.Schema, error) {
	q, ok := stmt.(sqlast.Query)
	if !ok {
		kind := "unknown"
		if other, ok := stmt.(sqlast.OtherStatement); ok {
			kind = other.Kind
		}
		return types.Schema{}, &UnsupportedStatementError{Kind: kind, File: file}
	}
	return inferQuery(q, scope{ctx: ctx, ctes: map[string]types.Schema{}}, file)
}

func inferQuery(q sqlast.Query, s scope, file string) (types.Schema, error) {
	for _, cte := range q.CTEs {
		schema, err := inferQuery(cte.Query, s, file)
		if err != nil {
			return types.Schema{}, err
		}
		s = s.withCTE(cte.Name, schema)
	}
	return inferSetExpr(q.Body, s, file)
}

// inferSetExpr handles the Query → SetExpr step: a bare SELECT infers
// directly, a set operation takes its left operand's schema on the
// assumption operands are union-compatible (mismatches aren't diagnosed at
// this layer, per the inference algorithm).
func inferSetExpr(se sqlast.SetExpr, s scope, file string) (types.Schema, error) {
	switch e := se.(type) {
	case sqlast.Select:
		return inferSelect(e, s, file)
	case sqlast.SetOperation:
		return inferSetExpr(e.Left, s, file)
	default:
		return types.Schema{}, &UnsupportedStatementError{Kind: "unknown set expression", File: file}
	}
}

func inferSelect(sel sqlast.Select, s scope, file string) (types.Schema, error) {
	source, aliasSchemas, err := resolveFromList(sel.From, s, file)
	if err != nil {
		return types.Schema{}, err
	}

	groupKeys := map[string]bool{}
	for _, g := range sel.GroupBy {
		if name := surfaceName(g); name != "" {
			groupKeys[name] = true
		}
	}
	grouped := len(groupKeys) > 0

	var cols []types.Column
	for _, item := range sel.Projection {
		switch it := item.(type) {
		case sqlast.UnnamedExpr:
			t, name, err := inferExpr(it.Expr, source, s.ctx.Dialect, file)
			if err != nil {
				return types.Schema{}, err
			}
			if grouped {
				if isAggregateExpr(it.Expr) {
					return types.Schema{}, &AggregateWithoutAliasError{Name: name, File: file}
				}
				if !groupKeys[name] {
					return types.Schema{}, &InvalidGroupByColumnError{Name: name, File: file}
				}
			}
			cols = append(cols, types.NewColumn(name, t))

		case sqlast.AliasedExpr:
			t, _, err := inferExpr(it.Expr, source, s.ctx.Dialect, file)
			if err != nil {
				return types.Schema{}, err
			}
			if grouped && !isAggregateExpr(it.Expr) && !groupKeys[surfaceName(it.Expr)] {
				return types.Schema{}, &InvalidGroupByColumnError{Name: it.Alias, File: file}
			}
			cols = append(cols, types.NewColumn(it.Alias, t))

		case sqlast.Wildcard:
			if !s.ctx.UseCatalog {
				return types.Schema{}, &SelectStarWithoutCatalogError{File: file}
			}
			cols = append(cols, source.Columns...)

		case sqlast.QualifiedWildcard:
			schema, ok := aliasSchemas[it.Qualifier]
			if !ok {
				return types.Schema{}, &UnknownTableError{Table: it.Qualifier, File: file}
			}
			cols = append(cols, schema.Columns...)

		default:
			return types.Schema{}, &UnsupportedStatementError{Kind: "unknown projection item", File: file}
		}
	}

	return types.NewSchema(cols...), nil
}

// resolveFromList computes the source schema (left-biased column merge
// across the FROM list and its joins) and a side table of per-alias
// schemas for qualified-wildcard resolution.
func resolveFromList(from []sqlast.TableWithJoins, s scope, file string) (types.Schema, map[string]types.Schema, error) {
	aliasSchemas := map[string]types.Schema{}
	var merged types.Schema
	first := true

	for _, twj := range from {
		schema, key, err := resolveTableFactor(twj.Relation, s, file)
		if err != nil {
			return types.Schema{}, nil, err
		}
		aliasSchemas[key] = schema
		merged = mergeSchema(merged, schema, first)
		first = false

		for _, join := range twj.Joins {
			jschema, jkey, err := resolveTableFactor(join.Relation, s, file)
			if err != nil {
				return types.Schema{}, nil, err
			}
			aliasSchemas[jkey] = jschema
			merged = mergeSchema(merged, jschema, false)
		}
	}

	return merged, aliasSchemas, nil
}

// mergeSchema implements left-biased column merge: the seed schema's
// columns are kept as-is, and every later schema only contributes columns
// whose name doesn't already appear.
func mergeSchema(left types.Schema, right types.Schema, isSeed bool) types.Schema {
	if isSeed {
		return right
	}
	cols := append([]types.Column{}, left.Columns...)
	for _, c := range right.Columns {
		if _, ok := left.Find(c.Name); !ok {
			cols = append(cols, c)
		}
	}
	return types.NewSchema(cols...)
}

func resolveTableFactor(tf sqlast.TableFactor, s scope, file string) (types.Schema, string, error) {
	switch t := tf.(type) {
	case sqlast.Table:
		key := t.Alias
		if key == "" {
			key = t.Name.Last()
		}
		if schema, ok := s.resolve(t.Name.String()); ok {
			return schema, key, nil
		}
		if schema, ok := s.resolve(t.Name.Last()); ok {
			return schema, key, nil
		}
		return types.Schema{}, "", &UnknownTableError{Table: t.Name.String(), File: file}

	case sqlast.Derived:
		schema, err := inferQuery(t.Query, s, file)
		if err != nil {
			return types.Schema{}, "", err
		}
		return schema, t.Alias, nil

	default:
		return types.Schema{}, "", &UnsupportedStatementError{Kind: "unknown table factor", File: file}
	}
}

// surfaceName extracts the surface column name GROUP BY validity checks
// compare against: the bare name for an Identifier, the last segment for a
// CompoundIdentifier, empty for anything else (an expression with no
// natural surface name can never satisfy a group-key match).
func surfaceName(e sqlast.Expr) string {
	switch e := e.(type) {
	case sqlast.Identifier:
		return e.Name
	case sqlast.CompoundIdentifier:
		return e.Last()
	default:
		return ""
	}
}

func isAggregateExpr(e sqlast.Expr) bool {
	fn, ok := e.(sqlast.Function)
	return ok && sqlparse.IsAggregate(fn.Name)
}

var firstArgFunctions = map[string]bool{
	"SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"COALESCE": true, "IFNULL": true, "NULLIF": true,
}

var stringFunctions = map[string]bool{
	"CONCAT": true, "UPPER": true, "LOWER": true, "TRIM": true, "SUBSTRING": true,
}

var timestampFunctions = map[string]bool{
	"NOW": true, "CURRENT_TIMESTAMP": true, "CURRENT_DATE": true,
}

// inferExpr types an expression against the source schema, returning its
// LogicalType and surface name (used for GROUP BY validity and emitted
// column naming).
func inferExpr(e sqlast.Expr, source types.Schema, dialect sqlast.Dialect, file string) (types.LogicalType, string, error) {
	switch e := e.(type) {
	case sqlast.Identifier:
		col, ok := source.Find(e.Name)
		if !ok {
			return types.LogicalType{}, e.Name, &UnknownColumnError{Column: e.Name, File: file}
		}
		return col.LogicalType, e.Name, nil

	case sqlast.CompoundIdentifier:
		name := e.Last()
		col, ok := source.Find(name)
		if !ok {
			return types.LogicalType{}, name, &UnknownColumnError{Column: name, File: file}
		}
		return col.LogicalType, name, nil

	case sqlast.Value:
		switch e.Kind {
		case sqlast.ValueInt:
			return types.NewInt(), "", nil
		case sqlast.ValueFloat:
			return types.NewFloat(), "", nil
		case sqlast.ValueString:
			return types.NewString(), "", nil
		case sqlast.ValueBool:
			return types.NewBool(), "", nil
		default:
			return types.NewUnknown(), "", nil
		}

	case sqlast.Cast:
		_, name, err := inferExpr(e.Expr, source, dialect, file)
		if err != nil {
			return types.LogicalType{}, name, err
		}
		return MapWarehouseType(dialect, e.TargetType), name, nil

	case sqlast.Function:
		name := strings.ToLower(e.Name)
		t, err := functionReturnType(e, source, dialect, file)
		if err != nil {
			return types.LogicalType{}, name, err
		}
		return t, name, nil

	case sqlast.BinaryOp:
		return inferBinaryOp(e, source, dialect, file)

	case sqlast.Case:
		return types.NewUnknown(), "", nil

	default:
		return types.NewUnknown(), "", nil
	}
}

var comparisonOps = map[string]bool{
	"=": true, "<>": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"like": true, "not like": true, "in": true, "not in": true, "is": true,
	"between": true, "not between": true,
}

var logicalOps = map[string]bool{"and": true, "or": true, "not": true}
var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}

func inferBinaryOp(b sqlast.BinaryOp, source types.Schema, dialect sqlast.Dialect, file string) (types.LogicalType, string, error) {
	// Both operands are walked for unknown-column errors even where the
	// result type is fixed, so a bad reference inside e.g. `a = bogus_col`
	// surfaces instead of being silently typed Bool.
	if _, _, err := inferExpr(b.Left, source, dialect, file); err != nil {
		return types.LogicalType{}, "", err
	}
	if b.Right != nil {
		if _, _, err := inferExpr(b.Right, source, dialect, file); err != nil {
			return types.LogicalType{}, "", err
		}
	}

	switch {
	case comparisonOps[b.Op] || logicalOps[b.Op]:
		return types.NewBool(), "", nil
	case b.Op == "||":
		return types.NewString(), "", nil
	case arithmeticOps[b.Op]:
		t, _, err := inferExpr(b.Left, source, dialect, file)
		if err != nil {
			return types.LogicalType{}, "", err
		}
		return t, "", nil
	default:
		return types.NewUnknown(), "", nil
	}
}

func functionReturnType(f sqlast.Function, source types.Schema, dialect sqlast.Dialect, file string) (types.LogicalType, error) {
	name := strings.ToUpper(f.Name)

	switch {
	case name == "COUNT":
		return types.NewInt(), nil
	case firstArgFunctions[name]:
		if len(f.Args) == 0 {
			return types.NewUnknown(), nil
		}
		t, _, err := inferExpr(f.Args[0], source, dialect, file)
		if err != nil {
			return types.LogicalType{}, err
		}
		return t, nil
	case stringFunctions[name]:
		return types.NewString(), nil
	case timestampFunctions[name]:
		return types.NewTimestamp(), nil
	default:
		return types.NewUnknown(), nil
	}
}
