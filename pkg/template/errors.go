// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
)

// RenderError is returned when a {{ ... }} or {% ... %} tag cannot be
// evaluated: unknown function, wrong argument count, unbalanced tag.
type RenderError struct {
	Message  string
	FilePath *string
	Line     *int
	Column   *int
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("jinja render error: %s", e.Message)
}

// ToDiagnostic converts the error to a structured diagnostic, attaching a
// location when the file and position are known.
func (e *RenderError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.JinjaRenderError, diag.SeverityError, e.Message)
	if e.FilePath != nil && e.Line != nil && e.Column != nil {
		d = d.WithLocation(diag.WithPosition(*e.FilePath, *e.Line, *e.Column))
	} else if e.FilePath != nil {
		d = d.WithLocation(diag.NewLocation(*e.FilePath))
	}
	return d
}

// UndefinedVariableError is returned when var() references a variable with
// no matching project value and no default argument.
type UndefinedVariableError struct {
	Name     string
	FilePath *string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Name)
}

// ToDiagnostic converts the error to a structured diagnostic.
func (e *UndefinedVariableError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.JinjaUndefinedVariable, diag.SeverityError, fmt.Sprintf("undefined variable: %s", e.Name))
	if e.FilePath != nil {
		d = d.WithLocation(diag.NewLocation(*e.FilePath))
	}
	return d
}
