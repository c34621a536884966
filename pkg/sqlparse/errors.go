// SPDX-License-Identifier: Apache-2.0

package sqlparse

import (
	"fmt"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
)

// SyntaxError is a hard parse failure: the token stream does not form valid
// SQL the grammar recognizes at all.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	File    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sql parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ToDiagnostic converts the error to a structured diagnostic.
func (e *SyntaxError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlParseError, diag.SeverityError, e.Message)
	if e.File != "" {
		d = d.WithLocation(diag.WithPosition(e.File, e.Line, e.Column))
	}
	return d
}

// UnsupportedSyntaxError marks a construct the parser recognizes but does
// not model (e.g. a dialect-specific clause). It is recoverable: the caller
// degrades to an unmodeled node rather than aborting the parse.
type UnsupportedSyntaxError struct {
	Message string
	Line    int
	Column  int
	File    string
}

func (e *UnsupportedSyntaxError) Error() string {
	return fmt.Sprintf("unsupported syntax at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ToDiagnostic converts the error to a structured diagnostic.
func (e *UnsupportedSyntaxError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.SqlUnsupportedSyntax, diag.SeverityError, e.Message)
	if e.File != "" {
		d = d.WithLocation(diag.WithPosition(e.File, e.Line, e.Column))
	}
	return d
}
