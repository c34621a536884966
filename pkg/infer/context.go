// SPDX-License-Identifier: Apache-2.0

// Package infer computes the result schema of a parsed SQL query by walking
// its sqlast.Statement against an InferenceContext of known table schemas,
// per the SELECT pipeline in the inference algorithm.
package infer

import (
	"sort"

	"github.com/sqlcontract/sqlcontract/pkg/manifest"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// InferenceContext maps every name a table can be referenced by (short
// name, schema-qualified name, dbt unique_id) to its Schema, and carries
// whether catalog-backed wildcard expansion is available.
type InferenceContext struct {
	Dialect    sqlast.Dialect
	UseCatalog bool

	schemas map[string]types.Schema
}

// NewInferenceContext builds an empty context for the given dialect.
func NewInferenceContext(dialect sqlast.Dialect, useCatalog bool) *InferenceContext {
	return &InferenceContext{Dialect: dialect, UseCatalog: useCatalog, schemas: map[string]types.Schema{}}
}

// Bind registers schema under name, overwriting any existing binding. Models
// and sources are typically bound under several names: their short name,
// their unique_id, and (for sources) "source_name.table_name".
func (c *InferenceContext) Bind(name string, schema types.Schema) {
	c.schemas[name] = schema
}

// Lookup resolves a table reference to its Schema.
func (c *InferenceContext) Lookup(name string) (types.Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// FromManifest builds a context from a manifest's enforced-contract models
// and declared sources. Models without an enforced contract, and models or
// sources with no declared columns, contribute no schema; a declared
// column without data_type information is bound with an Unknown type.
func FromManifest(m *manifest.Manifest, dialect sqlast.Dialect, useCatalog bool) *InferenceContext {
	ctx := NewInferenceContext(dialect, useCatalog)

	for id, node := range m.Nodes {
		if node.Config.Contract == nil || !node.Config.Contract.Enforced {
			continue
		}
		schema := schemaFromNodeColumns(node, dialect)
		if len(schema.Columns) == 0 {
			continue
		}
		ctx.Bind(id, schema)
		ctx.Bind(node.Name, schema)
	}

	for id, src := range m.Sources {
		schema := schemaFromSourceColumns(src, dialect)
		if len(schema.Columns) == 0 {
			continue
		}
		ctx.Bind(id, schema)
		ctx.Bind(src.SourceName+"."+src.Name, schema)
		ctx.Bind(src.Name, schema)
	}

	return ctx
}

func schemaFromNodeColumns(n manifest.Node, dialect sqlast.Dialect) types.Schema {
	cols := make([]types.Column, 0, len(n.Columns))
	for _, name := range orderedColumnNames(n.Columns) {
		cd := n.Columns[name]
		cols = append(cols, columnFromDef(name, cd, dialect))
	}
	return types.NewSchema(cols...)
}

func schemaFromSourceColumns(s manifest.Source, dialect sqlast.Dialect) types.Schema {
	cols := make([]types.Column, 0, len(s.Columns))
	for _, name := range orderedColumnNames(s.Columns) {
		cd := s.Columns[name]
		cols = append(cols, columnFromDef(name, cd, dialect))
	}
	return types.NewSchema(cols...)
}

func columnFromDef(name string, cd manifest.ColumnDef, dialect sqlast.Dialect) types.Column {
	lt := types.NewUnknown()
	if cd.DataType != nil {
		lt = MapWarehouseType(dialect, *cd.DataType)
	}
	return types.NewColumn(name, lt)
}

// orderedColumnNames returns cols' keys sorted, since manifest.json decodes
// a JSON object (map) and the original declaration order isn't preserved.
func orderedColumnNames(cols map[string]manifest.ColumnDef) []string {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
