// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"context"

	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// FakeAdapter is a test double: FetchSchema returns whatever's registered
// for a table under Schemas, or TableNotFound otherwise.
type FakeAdapter struct {
	Schemas map[TableIdentifier]types.Schema
	ConnErr error
}

// NewFakeAdapter builds an empty FakeAdapter.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{Schemas: make(map[TableIdentifier]types.Schema)}
}

// WithSchema registers table's schema and returns the adapter for chaining.
func (a *FakeAdapter) WithSchema(table TableIdentifier, schema types.Schema) *FakeAdapter {
	a.Schemas[table] = schema
	return a
}

func (a *FakeAdapter) FetchSchema(ctx context.Context, table TableIdentifier) (types.Schema, error) {
	if err := ctx.Err(); err != nil {
		return types.Schema{}, err
	}
	schema, ok := a.Schemas[table]
	if !ok {
		return types.Schema{}, NewFetchError(TableNotFound, table, errNotRegistered)
	}
	return schema, nil
}

func (a *FakeAdapter) TestConnection(ctx context.Context) error {
	return a.ConnErr
}

var errNotRegistered = fakeNotRegisteredError{}

type fakeNotRegisteredError struct{}

func (fakeNotRegisteredError) Error() string { return "warehouse: table not registered in fake adapter" }
