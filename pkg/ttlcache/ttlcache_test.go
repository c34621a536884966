// SPDX-License-Identifier: Apache-2.0

package ttlcache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcontract/sqlcontract/pkg/ttlcache"
	"github.com/sqlcontract/sqlcontract/pkg/types"
	"github.com/sqlcontract/sqlcontract/pkg/warehouse"
)

func testSchema() types.Schema {
	return types.NewSchema(
		types.NewColumn("id", types.NewInt()),
		types.NewColumn("name", types.NewString()),
	)
}

func testTable() warehouse.TableIdentifier {
	return warehouse.TableIdentifier{Database: "my_db", Schema: "my_schema", Table: "my_table"}
}

func TestCacheInsertAndGet(t *testing.T) {
	cache := ttlcache.New(60 * time.Second)
	table := testTable()

	cache.Insert(table, testSchema())

	got, ok := cache.Get(table)
	require.True(t, ok)
	assert.Len(t, got.Columns, 2)
}

func TestCacheExpiration(t *testing.T) {
	cache := ttlcache.New(100 * time.Millisecond)
	table := testTable()

	cache.Insert(table, testSchema())

	_, ok := cache.Get(table)
	assert.True(t, ok)

	time.Sleep(150 * time.Millisecond)

	_, ok = cache.Get(table)
	assert.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	cache := ttlcache.New(60 * time.Second)
	table := testTable()

	cache.Insert(table, testSchema())
	_, ok := cache.Get(table)
	require.True(t, ok)

	cache.Evict(table)

	_, ok = cache.Get(table)
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	cache := ttlcache.New(60 * time.Second)
	cache.Insert(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "c"}, testSchema())
	cache.Insert(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "d"}, testSchema())
	require.Equal(t, 2, cache.Len())

	cache.Clear()

	assert.Equal(t, 0, cache.Len())
	assert.True(t, cache.IsEmpty())
}

func TestCacheStats(t *testing.T) {
	cache := ttlcache.New(100 * time.Millisecond)
	cache.Insert(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "fresh"}, testSchema())

	total, valid, expired := cache.Stats()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, valid)
	assert.Equal(t, 0, expired)

	time.Sleep(150 * time.Millisecond)
	cache.Insert(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "still_fresh"}, testSchema())

	total, valid, expired = cache.Stats()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, valid)
	assert.Equal(t, 1, expired)
}

func TestCacheEvictExpiredRemovesOnlyStaleEntries(t *testing.T) {
	cache := ttlcache.New(100 * time.Millisecond)
	cache.Insert(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "stale"}, testSchema())

	time.Sleep(150 * time.Millisecond)
	cache.Insert(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "fresh"}, testSchema())

	cache.EvictExpired()

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get(warehouse.TableIdentifier{Database: "a", Schema: "b", Table: "fresh"})
	assert.True(t, ok)
}

func TestCacheInsertReplacesExistingEntry(t *testing.T) {
	cache := ttlcache.New(60 * time.Second)
	table := testTable()

	cache.Insert(table, testSchema())
	cache.Insert(table, types.NewSchema(types.NewColumn("only_one", types.NewInt())))

	got, ok := cache.Get(table)
	require.True(t, ok)
	assert.Len(t, got.Columns, 1)
}

func TestNewDefaultUsesFiveMinuteTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ttlcache.DefaultTTL)
	cache := ttlcache.NewDefault()
	table := testTable()

	cache.Insert(table, testSchema())

	_, ok := cache.Get(table)
	assert.True(t, ok)
}
