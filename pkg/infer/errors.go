// SPDX-License-Identifier: Apache-2.0

package infer

import (
	"fmt"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
)

// UnsupportedStatementError is returned when Infer is asked to type a
// statement other than a Query (DDL/DML that sqlparse degraded to
// OtherStatement).
type UnsupportedStatementError struct {
	Kind string
	File string
}

func (e *UnsupportedStatementError) Error() string {
	return fmt.Sprintf("cannot infer a schema for %s statements", e.Kind)
}

func (e *UnsupportedStatementError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlInferenceError, diag.SeverityError, e.Error())
	if e.File != "" {
		d = d.WithLocation(diag.NewLocation(e.File))
	}
	return d
}

// UnknownTableError is returned when a FROM-list or qualified-wildcard
// reference names a table absent from the InferenceContext.
type UnknownTableError struct {
	Table string
	File  string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

func (e *UnknownTableError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlInferenceError, diag.SeverityError, e.Error())
	if e.File != "" {
		d = d.WithLocation(diag.NewLocation(e.File))
	}
	return d
}

// UnknownColumnError is returned when an Identifier/CompoundIdentifier does
// not resolve against the source schema.
type UnknownColumnError struct {
	Column string
	File   string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

func (e *UnknownColumnError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlInferenceError, diag.SeverityError, e.Error())
	if e.File != "" {
		d = d.WithLocation(diag.NewLocation(e.File))
	}
	return d
}

// AggregateWithoutAliasError is returned when a GROUP BY query's projection
// contains an unaliased aggregate expression.
type AggregateWithoutAliasError struct {
	Name string
	File string
}

func (e *AggregateWithoutAliasError) Error() string {
	return fmt.Sprintf("aggregate expression %q must be aliased in a GROUP BY query", e.Name)
}

func (e *AggregateWithoutAliasError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlGroupByAggregateUnaliased, diag.SeverityError, e.Error())
	if e.File != "" {
		d = d.WithLocation(diag.NewLocation(e.File))
	}
	return d
}

// InvalidGroupByColumnError is returned when a GROUP BY query's projection
// references a column that is neither an aggregate nor a group key.
type InvalidGroupByColumnError struct {
	Name string
	File string
}

func (e *InvalidGroupByColumnError) Error() string {
	return fmt.Sprintf("column %q is neither aggregated nor present in GROUP BY", e.Name)
}

func (e *InvalidGroupByColumnError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlInferenceError, diag.SeverityError, e.Error())
	if e.File != "" {
		d = d.WithLocation(diag.NewLocation(e.File))
	}
	return d
}

// SelectStarWithoutCatalogError is returned when a bare SELECT * is
// encountered and the InferenceContext was not built with catalog access
// (use_catalog == false), so the wildcard cannot be expanded.
type SelectStarWithoutCatalogError struct {
	File string
}

func (e *SelectStarWithoutCatalogError) Error() string {
	return "SELECT * cannot be expanded without catalog access"
}

func (e *SelectStarWithoutCatalogError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlSelectStarUnexpandable, diag.SeverityError, e.Error())
	if e.File != "" {
		d = d.WithLocation(diag.NewLocation(e.File))
	}
	return d
}
