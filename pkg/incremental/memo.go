// SPDX-License-Identifier: Apache-2.0

package incremental

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memoEntry is one cached query result, alongside the dependency versions
// observed when it was computed.
type memoEntry[V any] struct {
	tr     Tracker
	result V
	err    error
}

// memoTable memoizes a single derived query, keyed by K. Recomputation of
// the same key by concurrent callers is coalesced via singleflight, per
// spec.md §4.7 "Concurrency": the first caller computes, others wait and
// share its result.
type memoTable[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]memoEntry[V]
	group   singleflight.Group
}

func newMemoTable[K comparable, V any]() *memoTable[K, V] {
	return &memoTable[K, V]{entries: make(map[K]memoEntry[V])}
}

// compute is the query body: given a Tracker to record dependencies
// through, it returns this evaluation's result.
type compute[V any] func(tr *Tracker) (V, error)

// get returns the memoized result for key if every recorded dependency is
// still at the version it was read at; otherwise it computes a fresh
// result via fn (coalesced with any concurrent caller on the same key) and
// stores it. A context cancellation observed before or during fn aborts
// without updating the memo, per spec.md §5 "Cancellation".
func (t *memoTable[K, V]) get(ctx context.Context, key K, fn compute[V]) (V, error) {
	var zero V

	t.mu.RLock()
	entry, ok := t.entries[key]
	t.mu.RUnlock()
	if ok && entry.tr.stillValid() {
		return entry.result, entry.err
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	sfKey := fmt.Sprint(key)
	raw, err, _ := t.group.Do(sfKey, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tr := &Tracker{}
		result, ferr := fn(tr)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		t.mu.Lock()
		t.entries[key] = memoEntry[V]{tr: *tr, result: result, err: ferr}
		t.mu.Unlock()

		return result, ferr
	})
	if err != nil {
		if v, ok := raw.(V); ok {
			return v, err
		}
		return zero, err
	}
	return raw.(V), nil
}
