// SPDX-License-Identifier: Apache-2.0

// Package ttlcache caches warehouse metadata fetches behind a
// time-to-live, so repeated schema lookups against the same table within a
// single run (or across incremental re-evaluations) don't re-issue a
// warehouse round-trip. Expired entries are evicted lazily, on the access
// that discovers them stale, rather than by a background sweep.
package ttlcache

import (
	"sync"
	"time"

	"github.com/sqlcontract/sqlcontract/pkg/types"
	"github.com/sqlcontract/sqlcontract/pkg/warehouse"
)

// DefaultTTL is the ttl NewDefault builds its Cache with.
const DefaultTTL = 5 * time.Minute

type entry struct {
	schema    types.Schema
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) valid(now time.Time) bool {
	return now.Sub(e.createdAt) < e.ttl
}

// Cache is a TTL-bounded, many-readers/exclusive-writer cache of warehouse
// table schemas, keyed on TableIdentifier's "database.schema.table" form.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// New builds a Cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: ttl,
		now:        time.Now,
	}
}

// NewDefault builds a Cache with DefaultTTL.
func NewDefault() *Cache {
	return New(DefaultTTL)
}

// Insert stores schema for table under the default TTL, replacing any
// existing entry.
func (c *Cache) Insert(table warehouse.TableIdentifier, schema types.Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[table.String()] = entry{schema: schema, createdAt: c.now(), ttl: c.defaultTTL}
}

// Get returns table's cached schema if present and not expired. A miss or
// an expired hit evicts the entry and returns (Schema{}, false).
func (c *Cache) Get(table warehouse.TableIdentifier) (types.Schema, bool) {
	key := table.String()

	c.mu.RLock()
	e, ok := c.entries[key]
	valid := ok && e.valid(c.now())
	c.mu.RUnlock()

	if valid {
		return e.schema, true
	}

	if ok {
		c.Evict(table)
	}
	return types.Schema{}, false
}

// Evict removes table's entry, if any.
func (c *Cache) Evict(table warehouse.TableIdentifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, table.String())
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// EvictExpired removes every entry whose TTL has elapsed. Get already
// evicts lazily on a stale hit; this is for callers that want to bound
// memory between accesses (e.g. a periodic sweep).
func (c *Cache) EvictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if !e.valid(now) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries in the cache, including expired ones
// not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IsEmpty reports whether the cache has no entries.
func (c *Cache) IsEmpty() bool {
	return c.Len() == 0
}

// Stats returns (total, valid, expired) entry counts.
func (c *Cache) Stats() (total, valid, expired int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	total = len(c.entries)
	for _, e := range c.entries {
		if e.valid(now) {
			valid++
		}
	}
	expired = total - valid
	return total, valid, expired
}
