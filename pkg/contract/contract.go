// SPDX-License-Identifier: Apache-2.0

// Package contract compares an inferred schema against a declared dbt
// contract and reports structured diagnostics: lenient type compatibility
// always (see Compatible), with extra-column reporting gated by the
// contract's EnforcementPolicy.AllowExtraColumns.
package contract

import (
	"fmt"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// Diff is the result of comparing an inferred schema against a contract.
type Diff struct {
	ModelID     string
	Expected    types.Schema
	Actual      types.Schema
	Diagnostics []diag.Diagnostic
}

// HasErrors reports whether any diagnostic is an error.
func (d Diff) HasErrors() bool {
	for _, dg := range d.Diagnostics {
		if dg.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is a warning.
func (d Diff) HasWarnings() bool {
	for _, dg := range d.Diagnostics {
		if dg.Severity == diag.SeverityWarn {
			return true
		}
	}
	return false
}

// Compare diffs inferred against contract.Schema. Contracts that aren't
// enforced don't participate in diffing and produce no diagnostics.
func Compare(modelID string, c types.Contract, inferred types.Schema, filePath *string) Diff {
	diff := Diff{ModelID: modelID, Expected: c.Schema, Actual: inferred}
	if !c.Enforced {
		return diff
	}

	seen := map[string]bool{}

	for _, expected := range c.Schema.Columns {
		seen[expected.Name] = true

		actual, ok := inferred.Find(expected.Name)
		if !ok {
			d := diag.New(diag.ContractMissingColumn, diag.SeverityError,
				fmt.Sprintf("column %q required by contract but missing from inferred schema", expected.Name))
			diff.Diagnostics = append(diff.Diagnostics, withLocation(d, filePath))
			continue
		}

		if !Compatible(expected.LogicalType, actual.LogicalType) {
			d := diag.New(diag.ContractTypeMismatch, diag.SeverityError,
				fmt.Sprintf("column %q type mismatch: expected %s, got %s", expected.Name, expected.LogicalType, actual.LogicalType)).
				WithComparison(expected.LogicalType.String(), actual.LogicalType.String())
			diff.Diagnostics = append(diff.Diagnostics, withLocation(d, filePath))
		}
	}

	if !c.Policy.AllowExtraColumns {
		for _, actual := range inferred.Columns {
			if seen[actual.Name] {
				continue
			}
			d := diag.New(diag.ContractExtraColumn, diag.SeverityWarn,
				fmt.Sprintf("column %q present in inferred schema but not declared in contract", actual.Name))
			diff.Diagnostics = append(diff.Diagnostics, withLocation(d, filePath))
		}
	}

	return diff
}

func withLocation(d diag.Diagnostic, filePath *string) diag.Diagnostic {
	if filePath != nil {
		d = d.WithLocation(diag.NewLocation(*filePath))
	}
	return d
}

// Compatible implements the lenient, inference-tolerant type compatibility
// check from the contract diff algorithm: exact match, either side
// Unknown, the three numeric leniency rules (Int/Float, Decimal/Decimal at
// any precision/scale, Int/Decimal — Float/Decimal is deliberately not
// among them), recursive Array element compatibility, and any two
// Structs. This is unconditional per the algorithm — the contract's
// EnforcementPolicy.AllowWidening isn't consulted here (see DESIGN.md).
func Compatible(expected, actual types.LogicalType) bool {
	if expected.Equal(actual) {
		return true
	}
	if expected.Kind == types.Unknown || actual.Kind == types.Unknown {
		return true
	}

	switch {
	case isIntFloatPair(expected.Kind, actual.Kind):
		return true
	case expected.Kind == types.Decimal && actual.Kind == types.Decimal:
		return true
	case isIntDecimalPair(expected.Kind, actual.Kind):
		return true
	case expected.Kind == types.Array && actual.Kind == types.Array:
		return Compatible(*expected.Element, *actual.Element)
	case expected.Kind == types.Struct && actual.Kind == types.Struct:
		return true
	default:
		return false
	}
}

func isIntFloatPair(a, b types.Kind) bool {
	return (a == types.Int && b == types.Float) || (a == types.Float && b == types.Int)
}

func isIntDecimalPair(a, b types.Kind) bool {
	return (a == types.Int && b == types.Decimal) || (a == types.Decimal && b == types.Int)
}
