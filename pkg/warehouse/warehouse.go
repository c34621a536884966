// SPDX-License-Identifier: Apache-2.0

// Package warehouse defines the adapter abstraction through which the
// analysis pipeline consults a live warehouse for the column shape of a
// model's table, the observed side of drift detection. Schema inference
// does not consult it. It is deliberately the only plugin point in the
// pipeline: dialects and logical types are closed tagged unions elsewhere,
// but which warehouse answers fetch_schema/test_connection is a
// configuration choice, not a source change.
package warehouse

import (
	"context"
	"fmt"

	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// TableIdentifier names a table in a warehouse's three-part namespace.
type TableIdentifier struct {
	Database string
	Schema   string
	Table    string
}

// String renders the identifier as the dotted key used for caching and
// diagnostics: "database.schema.table".
func (t TableIdentifier) String() string {
	return fmt.Sprintf("%s.%s.%s", t.Database, t.Schema, t.Table)
}

// ErrorKind enumerates the ways a warehouse round-trip can fail. It is a
// closed set: adding a kind is a deliberate source change, same as Kind in
// pkg/types.
type ErrorKind string

const (
	AuthenticationError ErrorKind = "authentication_error"
	TableNotFound       ErrorKind = "table_not_found"
	PermissionDenied    ErrorKind = "permission_denied"
	QueryError          ErrorKind = "query_error"
	InvalidResponse     ErrorKind = "invalid_response"
	NetworkError        ErrorKind = "network_error"
	ConfigError         ErrorKind = "config_error"
)

// FetchError is the error type every Adapter method returns on failure. Kind
// classifies the failure. The check run does not branch on Kind: a
// FetchError from a drift fetch, of any Kind, skips that table's drift
// findings and the run goes on.
type FetchError struct {
	Kind  ErrorKind
	Table *TableIdentifier
	Err   error
}

func (e *FetchError) Error() string {
	if e.Table != nil {
		return fmt.Sprintf("warehouse: %s: %s: %v", e.Kind, e.Table, e.Err)
	}
	return fmt.Sprintf("warehouse: %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError for a table-scoped failure.
func NewFetchError(kind ErrorKind, table TableIdentifier, err error) *FetchError {
	return &FetchError{Kind: kind, Table: &table, Err: err}
}

// NewConnectionError builds a FetchError for a connection-scoped failure
// (TestConnection, or any failure before a table is even addressed).
func NewConnectionError(kind ErrorKind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}

// Adapter is the two-operation capability every warehouse integration
// implements. It is intentionally minimal: the pipeline never writes to a
// warehouse, only reads schema shape and verifies reachability.
type Adapter interface {
	// FetchSchema returns table's live column shape, or a FetchError
	// describing why it couldn't.
	FetchSchema(ctx context.Context, table TableIdentifier) (types.Schema, error)
	// TestConnection verifies the adapter can reach the warehouse at all,
	// independent of any particular table.
	TestConnection(ctx context.Context) error
}
