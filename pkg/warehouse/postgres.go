// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/lib/pq"

	"github.com/sqlcontract/sqlcontract/pkg/infer"
	"github.com/sqlcontract/sqlcontract/pkg/logging"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// Postgres-specific error codes this adapter maps onto FetchError kinds.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
const (
	pqInvalidPassword      pq.ErrorCode = "28P01"
	pqInvalidAuthSpec      pq.ErrorCode = "28000"
	pqUndefinedTable       pq.ErrorCode = "42P01"
	pqInsufficientPriv     pq.ErrorCode = "42501"
	pqConnectionDoesntExst pq.ErrorCode = "08003"
	pqConnectionFailure    pq.ErrorCode = "08006"

	maxBackoffDuration = 1 * time.Minute
	backoffInterval    = 1 * time.Second
)

// PostgresAdapter is the reference Adapter implementation, querying
// information_schema over a *sql.DB with the teacher's retry-with-backoff
// pattern for transient connection failures.
type PostgresAdapter struct {
	DB     *sql.DB
	Logger logging.Logger
}

// NewPostgresAdapter wraps an already-opened *sql.DB.
func NewPostgresAdapter(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{DB: db, Logger: logging.NewNoopLogger()}
}

// FetchSchema queries information_schema.columns for table's live column
// shape and maps each reported type through infer.MapWarehouseType under
// the PostgreSQL dialect.
func (a *PostgresAdapter) FetchSchema(ctx context.Context, table TableIdentifier) (types.Schema, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_catalog = $1 AND table_schema = $2 AND table_name = $3
		ORDER BY ordinal_position`

	rows, err := a.queryWithRetry(ctx, query, table.Database, table.Schema, table.Table)
	if err != nil {
		return types.Schema{}, a.classify(table, err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return types.Schema{}, NewFetchError(InvalidResponse, table, err)
		}
		col := types.NewColumn(name, infer.MapWarehouseType(sqlast.PostgreSQL, dataType))
		if isNullable == "YES" {
			col.Nullable = types.NullableYes
		} else {
			col.Nullable = types.NullableNo
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return types.Schema{}, NewFetchError(InvalidResponse, table, err)
	}
	if len(columns) == 0 {
		return types.Schema{}, NewFetchError(TableNotFound, table, fmt.Errorf("no columns reported for %s", table))
	}

	return types.NewSchema(columns...), nil
}

// TestConnection pings the underlying *sql.DB.
func (a *PostgresAdapter) TestConnection(ctx context.Context) error {
	if err := a.DB.PingContext(ctx); err != nil {
		return a.classify(TableIdentifier{}, err)
	}
	return nil
}

// queryWithRetry mirrors the teacher's RDB.QueryContext: retry with
// exponential backoff, but only on errors the retry can plausibly fix
// (connection-level failures), not on query-shape errors.
func (a *PostgresAdapter) queryWithRetry(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for attempt := 1; ; attempt++ {
		rows, err := a.DB.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		pqErr := &pq.Error{}
		if errors.As(err, &pqErr) && isRetryableCode(pqErr.Code) {
			a.logRetry(args, attempt)
			if sleepErr := sleepCtx(ctx, b.Duration()); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		return nil, err
	}
}

func (a *PostgresAdapter) logRetry(args []any, attempt int) {
	if a.Logger == nil {
		return
	}
	key := fmt.Sprint(args...)
	a.Logger.LogWarehouseFetchRetry(key, attempt)
}

func isRetryableCode(code pq.ErrorCode) bool {
	return code == pqConnectionDoesntExst || code == pqConnectionFailure
}

// classify maps a driver error onto a FetchError kind. table may be the
// zero value for connection-scoped failures.
func (a *PostgresAdapter) classify(table TableIdentifier, err error) error {
	var t *TableIdentifier
	if table != (TableIdentifier{}) {
		t = &table
	}

	pqErr := &pq.Error{}
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqInvalidPassword, pqInvalidAuthSpec:
			return &FetchError{Kind: AuthenticationError, Table: t, Err: err}
		case pqUndefinedTable:
			return &FetchError{Kind: TableNotFound, Table: t, Err: err}
		case pqInsufficientPriv:
			return &FetchError{Kind: PermissionDenied, Table: t, Err: err}
		case pqConnectionDoesntExst, pqConnectionFailure:
			return &FetchError{Kind: NetworkError, Table: t, Err: err}
		default:
			return &FetchError{Kind: QueryError, Table: t, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &FetchError{Kind: NetworkError, Table: t, Err: err}
	}

	return &FetchError{Kind: QueryError, Table: t, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
