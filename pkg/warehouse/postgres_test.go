// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyMapsAuthenticationErrorCodes(t *testing.T) {
	a := &PostgresAdapter{}
	table := TableIdentifier{Database: "db", Schema: "s", Table: "t"}

	for _, code := range []pq.ErrorCode{pqInvalidPassword, pqInvalidAuthSpec} {
		err := a.classify(table, &pq.Error{Code: code})
		var fetchErr *FetchError
		assert.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, AuthenticationError, fetchErr.Kind)
	}
}

func TestClassifyMapsUndefinedTableToTableNotFound(t *testing.T) {
	a := &PostgresAdapter{}
	table := TableIdentifier{Database: "db", Schema: "s", Table: "t"}

	err := a.classify(table, &pq.Error{Code: pqUndefinedTable})
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, TableNotFound, fetchErr.Kind)
}

func TestClassifyMapsInsufficientPrivilegeToPermissionDenied(t *testing.T) {
	a := &PostgresAdapter{}
	table := TableIdentifier{Database: "db", Schema: "s", Table: "t"}

	err := a.classify(table, &pq.Error{Code: pqInsufficientPriv})
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, PermissionDenied, fetchErr.Kind)
}

func TestClassifyMapsConnectionFailureToNetworkError(t *testing.T) {
	a := &PostgresAdapter{}

	err := a.classify(TableIdentifier{}, &pq.Error{Code: pqConnectionFailure})
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, NetworkError, fetchErr.Kind)
	assert.Nil(t, fetchErr.Table)
}

func TestClassifyDefaultsUnknownPqCodeToQueryError(t *testing.T) {
	a := &PostgresAdapter{}
	table := TableIdentifier{Database: "db", Schema: "s", Table: "t"}

	err := a.classify(table, &pq.Error{Code: "99999"})
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, QueryError, fetchErr.Kind)
}

func TestIsRetryableCode(t *testing.T) {
	assert.True(t, isRetryableCode(pqConnectionFailure))
	assert.True(t, isRetryableCode(pqConnectionDoesntExst))
	assert.False(t, isRetryableCode(pqUndefinedTable))
}

func TestLogRetryIsNilSafeWithoutLogger(t *testing.T) {
	a := &PostgresAdapter{}
	assert.NotPanics(t, func() { a.logRetry([]any{"analytics", "public", "orders"}, 1) })
}
