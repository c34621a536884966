// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Codes are part of the external contract: once published, a code's string
// value never changes. This test pins every constant so an accidental rename
// fails loudly instead of silently breaking downstream consumers.
func TestCodeStability(t *testing.T) {
	want := map[Code]string{
		ContractMissingColumn:        "CONTRACT_MISSING_COLUMN",
		ContractTypeMismatch:         "CONTRACT_TYPE_MISMATCH",
		ContractExtraColumn:          "CONTRACT_EXTRA_COLUMN",
		ContractMissing:              "CONTRACT_MISSING",
		DriftColumnDropped:           "DRIFT_COLUMN_DROPPED",
		DriftTypeChange:              "DRIFT_TYPE_CHANGE",
		DriftColumnAdded:             "DRIFT_COLUMN_ADDED",
		SqlSelectStarUnexpandable:    "SQL_SELECT_STAR_UNEXPANDABLE",
		SqlUnsupportedSyntax:         "SQL_UNSUPPORTED_SYNTAX",
		SqlParseError:                "SQL_PARSE_ERROR",
		SqlInferenceError:            "SQL_INFERENCE_ERROR",
		SqlGroupByAggregateUnaliased: "SQL_GROUP_BY_AGGREGATE_UNALIASED",
		JinjaRenderError:             "JINJA_RENDER_ERROR",
		JinjaUndefinedVariable:       "JINJA_UNDEFINED_VARIABLE",
		JinjaSyntaxError:             "JINJA_SYNTAX_ERROR",
		InternalError:                "INTERNAL_ERROR",
		Info:                         "INFO",
		Warning:                      "WARNING",
	}

	assert.Len(t, AllCodes, len(want))
	for code, str := range want {
		assert.Equal(t, str, string(code))
	}

	seen := make(map[Code]bool, len(AllCodes))
	for _, c := range AllCodes {
		assert.False(t, seen[c], "duplicate code in AllCodes: %s", c)
		seen[c] = true
		assert.Contains(t, want, c)
	}
}

func TestDiagnosticOrderingIsDeterministic(t *testing.T) {
	errHigh := New(ContractMissingColumn, SeverityError, "missing column").WithLocation(WithLine("a.sql", 10))
	errLow := New(ContractMissingColumn, SeverityError, "missing column").WithLocation(WithLine("a.sql", 2))
	warn := New(DriftColumnAdded, SeverityWarn, "column added")
	info := New(Info, SeverityInfo, "fyi")

	ds := []Diagnostic{warn, errHigh, info, errLow}
	Sort(ds)

	assert.Equal(t, []Diagnostic{errLow, errHigh, warn, info}, ds)
}

func TestDiagnosticOrderingTiesByCodeThenLocation(t *testing.T) {
	a := New(ContractExtraColumn, SeverityError, "x").WithLocation(NewLocation("a.sql"))
	b := New(ContractMissingColumn, SeverityError, "x").WithLocation(NewLocation("a.sql"))

	ds := []Diagnostic{a, b}
	Sort(ds)

	assert.Equal(t, Code("CONTRACT_EXTRA_COLUMN"), ds[0].Code)
	assert.Equal(t, Code("CONTRACT_MISSING_COLUMN"), ds[1].Code)
}

func TestLocationNilSortsBeforeSet(t *testing.T) {
	withLoc := New(SqlParseError, SeverityError, "x").WithLocation(NewLocation("a.sql"))
	withoutLoc := New(SqlParseError, SeverityError, "x")

	ds := []Diagnostic{withLoc, withoutLoc}
	Sort(ds)

	assert.Nil(t, ds[0].Location)
	assert.NotNil(t, ds[1].Location)
}

func TestApplySeverityOverrides(t *testing.T) {
	ds := []Diagnostic{
		New(DriftColumnAdded, SeverityWarn, "x"),
		New(ContractMissingColumn, SeverityError, "y"),
	}

	out := ApplySeverityOverrides(ds, map[Code]Severity{DriftColumnAdded: SeverityError})

	assert.Equal(t, SeverityError, out[0].Severity)
	assert.Equal(t, SeverityError, out[1].Severity)
}

func TestApplySeverityOverridesLeavesUnlistedCodesAlone(t *testing.T) {
	ds := []Diagnostic{New(Info, SeverityInfo, "x")}

	out := ApplySeverityOverrides(ds, map[Code]Severity{DriftColumnAdded: SeverityError})

	assert.Equal(t, SeverityInfo, out[0].Severity)
}
