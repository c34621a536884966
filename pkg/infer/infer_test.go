// SPDX-License-Identifier: Apache-2.0

package infer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcontract/sqlcontract/pkg/infer"
	"github.com/sqlcontract/sqlcontract/pkg/infer/infertest"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/sqlparse"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

func inferSQL(t *testing.T, sql string, ctx *infer.InferenceContext) types.Schema {
	t.Helper()
	stmt, err := sqlparse.Parse(sql, ctx.Dialect, "model.sql")
	require.NoError(t, err)
	schema, err := infer.Infer(stmt, ctx, "model.sql")
	require.NoError(t, err)
	return schema
}

func TestInferSimpleProjection(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT id, name, email FROM users", ctx)

	assert.Equal(t, []string{"id", "name", "email"}, schema.Names())
	col, ok := schema.Find("id")
	require.True(t, ok)
	assert.Equal(t, types.NewInt(), col.LogicalType)
}

func TestInferAliasedColumn(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT id AS user_id FROM users", ctx)

	col, ok := schema.Find("user_id")
	require.True(t, ok)
	assert.Equal(t, types.NewInt(), col.LogicalType)
}

func TestInferJoinLeftBiasedMergeWithCatalog(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, true)
	schema := inferSQL(t, "SELECT * FROM users u JOIN customers c ON u.id = c.id", ctx)

	// customers contributes id/name too, but users bound them first:
	// left-biased merge keeps users' columns and only adds customers' region.
	assert.Equal(t, []string{"id", "name", "email", "signup_date", "region"}, schema.Names())
}

func TestInferQualifiedWildcard(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT u.*, c.region FROM users u JOIN customers c ON u.id = c.id", ctx)

	assert.Equal(t, []string{"id", "name", "email", "signup_date", "region"}, schema.Names())
}

func TestInferSelectStarWithoutCatalogFails(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	stmt, err := sqlparse.Parse("SELECT * FROM users", sqlast.ANSI, "model.sql")
	require.NoError(t, err)

	_, err = infer.Infer(stmt, ctx, "model.sql")
	var target *infer.SelectStarWithoutCatalogError
	require.ErrorAs(t, err, &target)
}

func TestInferGroupByValidAggregateWithAlias(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT user_id, COUNT(*) AS order_count FROM orders GROUP BY user_id", ctx)

	assert.Equal(t, []string{"user_id", "order_count"}, schema.Names())
	col, ok := schema.Find("order_count")
	require.True(t, ok)
	assert.Equal(t, types.NewInt(), col.LogicalType)
}

func TestInferGroupByUnaliasedAggregateFails(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	stmt, err := sqlparse.Parse("SELECT user_id, COUNT(*) FROM orders GROUP BY user_id", sqlast.ANSI, "model.sql")
	require.NoError(t, err)

	_, err = infer.Infer(stmt, ctx, "model.sql")
	var target *infer.AggregateWithoutAliasError
	require.ErrorAs(t, err, &target)
}

func TestInferGroupByNonKeyNonAggregateColumnFails(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	stmt, err := sqlparse.Parse("SELECT name, email FROM users GROUP BY name", sqlast.ANSI, "model.sql")
	require.NoError(t, err)

	_, err = infer.Infer(stmt, ctx, "model.sql")
	var target *infer.InvalidGroupByColumnError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "email", target.Name)
}

func TestInferUnknownTableFails(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	stmt, err := sqlparse.Parse("SELECT id FROM nonexistent", sqlast.ANSI, "model.sql")
	require.NoError(t, err)

	_, err = infer.Infer(stmt, ctx, "model.sql")
	var target *infer.UnknownTableError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "nonexistent", target.Table)
}

func TestInferUnknownColumnFails(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	stmt, err := sqlparse.Parse("SELECT bogus FROM users", sqlast.ANSI, "model.sql")
	require.NoError(t, err)

	_, err = infer.Infer(stmt, ctx, "model.sql")
	var target *infer.UnknownColumnError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "bogus", target.Column)
}

func TestInferCast(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT CAST(amount AS NUMERIC(10, 2)) AS amount FROM orders", ctx)

	col, ok := schema.Find("amount")
	require.True(t, ok)
	assert.Equal(t, types.NewDecimal(types.U16(10), types.U16(2)), col.LogicalType)
}

func TestInferPostgresCastShorthand(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.PostgreSQL, false)
	schema := inferSQL(t, "SELECT id::text AS id_text FROM orders", ctx)

	col, ok := schema.Find("id_text")
	require.True(t, ok)
	assert.Equal(t, types.NewString(), col.LogicalType)
}

func TestInferSumFirstArgType(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT user_id, SUM(amount) AS total FROM orders GROUP BY user_id", ctx)

	col, ok := schema.Find("total")
	require.True(t, ok)
	assert.Equal(t, types.NewDecimal(types.U16(10), types.U16(2)), col.LogicalType)
}

func TestInferBinaryOpComparisonIsBool(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT amount > 0 AS is_positive FROM orders", ctx)

	col, ok := schema.Find("is_positive")
	require.True(t, ok)
	assert.Equal(t, types.NewBool(), col.LogicalType)
}

func TestInferCaseIsUnknown(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT CASE WHEN amount > 0 THEN 'pos' ELSE 'neg' END AS bucket FROM orders", ctx)

	col, ok := schema.Find("bucket")
	require.True(t, ok)
	assert.Equal(t, types.NewUnknown(), col.LogicalType)
}

func TestInferCTE(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "WITH recent AS (SELECT id, amount FROM orders) SELECT id, amount FROM recent", ctx)

	assert.Equal(t, []string{"id", "amount"}, schema.Names())
}

func TestInferUnionTakesLeftSchema(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	schema := inferSQL(t, "SELECT id, name FROM users UNION ALL SELECT id, name FROM customers", ctx)

	assert.Equal(t, []string{"id", "name"}, schema.Names())
}

func TestInferUnsupportedStatement(t *testing.T) {
	ctx := infertest.NewFixtureContext(sqlast.ANSI, false)
	stmt, err := sqlparse.Parse("CREATE TABLE foo (id INT)", sqlast.ANSI, "model.sql")
	require.NoError(t, err)

	_, err = infer.Infer(stmt, ctx, "model.sql")
	var target *infer.UnsupportedStatementError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "CREATE", target.Kind)
}
