// SPDX-License-Identifier: Apache-2.0

// Package incremental is the demand-driven computation graph (spec.md
// §4.7): typed inputs carrying a version counter, and derived queries
// memoized against the set of input versions they read. A query is
// re-evaluated only when at least one dependency's version has advanced
// since the query's last evaluation — editing a file to identical content
// never invalidates, because Input.Set is a no-op when the new value
// equals the old one.
package incremental

import (
	"sync"

	"github.com/google/uuid"
)

// versioned is satisfied by every Input[T], erased of its type parameter
// so a Tracker can hold a heterogeneous dependency set.
type versioned interface {
	id() string
	version() uint64
}

// Input is a versioned base value: a SqlFile's contents, a manifest's raw
// JSON, the decoded configuration, or an optional catalog document. The
// zero value is not usable; construct with NewInput.
type Input[T any] struct {
	tokenID string
	mu      sync.RWMutex
	value   T
	version uint64
	equal   func(a, b T) bool
}

// NewInput constructs an input seeded with initial, using == for change
// detection. T must be comparable; for types that aren't (e.g. []byte,
// maps), use NewInputWithEqual.
func NewInput[T comparable](initial T) *Input[T] {
	return &Input[T]{
		tokenID: uuid.NewString(),
		value:   initial,
		version: 1,
		equal:   func(a, b T) bool { return a == b },
	}
}

// NewInputWithEqual constructs an input using a caller-supplied equality
// function, for T that aren't comparable with ==.
func NewInputWithEqual[T any](initial T, equal func(a, b T) bool) *Input[T] {
	return &Input[T]{tokenID: uuid.NewString(), value: initial, version: 1, equal: equal}
}

func (in *Input[T]) id() string { return in.tokenID }

func (in *Input[T]) version() uint64 {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.version
}

// Get returns the current value and the version it was read at.
func (in *Input[T]) Get() (T, uint64) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value, in.version
}

// Set replaces the input's value. If v equals the current value under the
// input's equality function, this is a no-op: the version does not
// advance and no dependent query is invalidated.
func (in *Input[T]) Set(v T) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.equal(in.value, v) {
		return
	}
	in.value = v
	in.version++
}

// Tracker records which inputs a query reads during one evaluation, so the
// memo layer can later tell whether any of them has since changed.
type Tracker struct {
	deps map[string]depSnapshot
}

type depSnapshot struct {
	v    versioned
	seen uint64
}

func (t *Tracker) record(v versioned, ver uint64) {
	if t.deps == nil {
		t.deps = make(map[string]depSnapshot)
	}
	t.deps[v.id()] = depSnapshot{v: v, seen: ver}
}

func (t *Tracker) stillValid() bool {
	for _, snap := range t.deps {
		if snap.v.version() != snap.seen {
			return false
		}
	}
	return true
}

// Read reads in's current value while registering it as a dependency of
// the query being evaluated under tr.
func Read[T any](tr *Tracker, in *Input[T]) T {
	val, ver := in.Get()
	tr.record(in, ver)
	return val
}
