// SPDX-License-Identifier: Apache-2.0

// Package drift compares a declared schema against a warehouse-observed
// schema: strict type equality (no lenient widening), unlike pkg/contract.
package drift

import (
	"fmt"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

// Detection is the result of comparing a declared schema against what the
// warehouse actually reports.
type Detection struct {
	TableID     string
	Expected    types.Schema
	Actual      types.Schema
	Diagnostics []diag.Diagnostic
}

func (d Detection) HasErrors() bool   { return d.hasSeverity(diag.SeverityError) }
func (d Detection) HasWarnings() bool { return d.hasSeverity(diag.SeverityWarn) }
func (d Detection) HasInfo() bool     { return d.hasSeverity(diag.SeverityInfo) }

func (d Detection) hasSeverity(sev diag.Severity) bool {
	for _, dg := range d.Diagnostics {
		if dg.Severity == sev {
			return true
		}
	}
	return false
}

// Detect compares expected (declared) against actual (warehouse-observed):
// a dropped or type-changed column is an error, a column new to the
// warehouse is informational.
func Detect(tableID string, expected, actual types.Schema, filePath *string) Detection {
	det := Detection{TableID: tableID, Expected: expected, Actual: actual}

	seen := map[string]bool{}

	for _, exp := range expected.Columns {
		seen[exp.Name] = true

		act, ok := actual.Find(exp.Name)
		if !ok {
			d := diag.New(diag.DriftColumnDropped, diag.SeverityError,
				fmt.Sprintf("column %q was dropped from warehouse table (expected type: %s)", exp.Name, exp.LogicalType)).
				WithComparison(exp.Name, "")
			det.Diagnostics = append(det.Diagnostics, withLocation(d, filePath))
			continue
		}

		if !TypesMatch(exp.LogicalType, act.LogicalType) {
			d := diag.New(diag.DriftTypeChange, diag.SeverityError,
				fmt.Sprintf("column %q type changed: was %s, now %s", exp.Name, exp.LogicalType, act.LogicalType)).
				WithComparison(exp.LogicalType.String(), act.LogicalType.String())
			det.Diagnostics = append(det.Diagnostics, withLocation(d, filePath))
		}
	}

	for _, act := range actual.Columns {
		if seen[act.Name] {
			continue
		}
		d := diag.New(diag.DriftColumnAdded, diag.SeverityInfo,
			fmt.Sprintf("new column %q added to warehouse table (type: %s)", act.Name, act.LogicalType)).
			WithComparison("", act.Name)
		det.Diagnostics = append(det.Diagnostics, withLocation(d, filePath))
	}

	return det
}

func withLocation(d diag.Diagnostic, filePath *string) diag.Diagnostic {
	if filePath != nil {
		d = d.WithLocation(diag.NewLocation(*filePath))
	}
	return d
}

// TypesMatch implements drift's strict equality: exact variant match,
// Decimal requires equal precision and scale, Unknown on either side
// matches anything (no signal).
func TypesMatch(expected, actual types.LogicalType) bool {
	if expected.Kind == types.Unknown || actual.Kind == types.Unknown {
		return true
	}
	return expected.Equal(actual)
}
