// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureJSON = `{
  "metadata": {
    "dbt_schema_version": "https://schemas.getdbt.com/dbt/manifest/v11.json",
    "dbt_version": "1.7.0",
    "generated_at": "2026-07-30T00:00:00Z"
  },
  "nodes": {
    "model.proj.orders": {
      "unique_id": "model.proj.orders",
      "name": "orders",
      "resource_type": "model",
      "package_name": "proj",
      "path": "orders.sql",
      "original_file_path": "models/orders.sql",
      "config": {"contract": {"enforced": true}},
      "columns": {
        "order_id": {"name": "order_id", "data_type": "int64"}
      },
      "depends_on": {"nodes": ["source.proj.raw.orders"]}
    },
    "test.proj.not_null_orders_order_id": {
      "unique_id": "test.proj.not_null_orders_order_id",
      "name": "not_null_orders_order_id",
      "resource_type": "test",
      "package_name": "proj",
      "path": "not_null_orders_order_id.sql",
      "original_file_path": "not_null_orders_order_id.sql"
    }
  },
  "sources": {
    "source.proj.raw.orders": {
      "unique_id": "source.proj.raw.orders",
      "source_name": "raw",
      "name": "orders",
      "schema": "raw"
    }
  },
  "parent_map": {"model.proj.orders": ["source.proj.raw.orders"]},
  "child_map": {"source.proj.raw.orders": ["model.proj.orders"]}
}`

func TestParseFixtureManifest(t *testing.T) {
	m, err := Parse([]byte(fixtureJSON))
	require.NoError(t, err)

	assert.Equal(t, "1.7.0", m.Metadata.DbtVersion)

	models := m.Models()
	require.Contains(t, models, "model.proj.orders")
	assert.Len(t, models, 1)

	orders := models["model.proj.orders"]
	assert.True(t, orders.Config.IsEnabled())
	require.NotNil(t, orders.Config.Contract)
	assert.True(t, orders.Config.Contract.Enforced)
	assert.Contains(t, orders.Columns, "order_id")

	src, ok := m.Source("source.proj.raw.orders")
	require.True(t, ok)
	assert.Equal(t, "raw", src.Schema)
}

func TestParseRejectsMissingRequiredField(t *testing.T) {
	_, err := Parse([]byte(`{"nodes": {}, "sources": {}}`))
	require.Error(t, err)

	var schemaErr *SchemaValidationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
