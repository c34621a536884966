// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcontract/sqlcontract/pkg/manifest"
)

func fixtureManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(`{
		"metadata": {"dbt_schema_version": "v11", "dbt_version": "1.7.0", "generated_at": "now"},
		"nodes": {
			"model.proj.stg_orders": {
				"unique_id": "model.proj.stg_orders", "name": "stg_orders", "resource_type": "model",
				"package_name": "proj", "path": "stg_orders.sql", "original_file_path": "models/stg_orders.sql",
				"depends_on": {"nodes": ["source.proj.raw.orders"]}
			},
			"model.proj.orders": {
				"unique_id": "model.proj.orders", "name": "orders", "resource_type": "model",
				"package_name": "proj", "path": "orders.sql", "original_file_path": "models/orders.sql",
				"depends_on": {"nodes": ["model.proj.stg_orders"]}
			}
		},
		"sources": {
			"source.proj.raw.orders": {
				"unique_id": "source.proj.raw.orders", "source_name": "raw", "name": "orders", "schema": "raw"
			}
		}
	}`))
	require.NoError(t, err)
	return m
}

func TestFromManifestDerivesEdgesFromDependsOn(t *testing.T) {
	g := FromManifest(fixtureManifest(t))

	assert.ElementsMatch(t, []string{"source.proj.raw.orders"}, g.Parents("model.proj.stg_orders"))
	assert.ElementsMatch(t, []string{"model.proj.stg_orders"}, g.Children("source.proj.raw.orders"))
}

func TestDownstreamIsTransitiveClosure(t *testing.T) {
	g := FromManifest(fixtureManifest(t))

	downstream := g.Downstream("source.proj.raw.orders")

	assert.ElementsMatch(t, []string{"model.proj.stg_orders", "model.proj.orders"}, downstream)
}

func TestUpstreamIsTransitiveClosure(t *testing.T) {
	g := FromManifest(fixtureManifest(t))

	upstream := g.Upstream("model.proj.orders")

	assert.ElementsMatch(t, []string{"model.proj.stg_orders", "source.proj.raw.orders"}, upstream)
}

func TestHasPath(t *testing.T) {
	g := FromManifest(fixtureManifest(t))

	assert.True(t, g.HasPath("source.proj.raw.orders", "model.proj.orders"))
	assert.False(t, g.HasPath("model.proj.orders", "source.proj.raw.orders"))
}

func TestTopologicalSortRespectsDependencies(t *testing.T) {
	g := FromManifest(fixtureManifest(t))

	order, ok := g.TopologicalSort()
	require.True(t, ok)

	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}

	assert.Less(t, pos["source.proj.raw.orders"], pos["model.proj.stg_orders"])
	assert.Less(t, pos["model.proj.stg_orders"], pos["model.proj.orders"])
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	m, err := manifest.Parse([]byte(`{
		"metadata": {"dbt_schema_version": "v11", "dbt_version": "1.7.0", "generated_at": "now"},
		"nodes": {
			"model.proj.a": {
				"unique_id": "model.proj.a", "name": "a", "resource_type": "model",
				"package_name": "proj", "path": "a.sql", "original_file_path": "models/a.sql",
				"depends_on": {"nodes": ["model.proj.b"]}
			},
			"model.proj.b": {
				"unique_id": "model.proj.b", "name": "b", "resource_type": "model",
				"package_name": "proj", "path": "b.sql", "original_file_path": "models/b.sql",
				"depends_on": {"nodes": ["model.proj.a"]}
			}
		},
		"sources": {}
	}`))
	require.NoError(t, err)

	g := FromManifest(m)
	_, ok := g.TopologicalSort()

	assert.False(t, ok)
}
