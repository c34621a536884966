// SPDX-License-Identifier: Apache-2.0

package drift_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/drift"
	"github.com/sqlcontract/sqlcontract/pkg/types"
)

func testSchema() types.Schema {
	return types.NewSchema(
		types.NewColumn("id", types.NewInt()),
		types.NewColumn("name", types.NewString()),
		types.NewColumn("amount", types.NewDecimal(types.U16(10), types.U16(2))),
	)
}

func TestDetectNoDrift(t *testing.T) {
	expected := testSchema()
	det := drift.Detect("test_table", expected, expected, nil)

	assert.Empty(t, det.Diagnostics)
	assert.False(t, det.HasErrors())
	assert.False(t, det.HasWarnings())
	assert.False(t, det.HasInfo())
}

func TestDetectDroppedColumn(t *testing.T) {
	expected := testSchema()
	actual := types.NewSchema(
		types.NewColumn("id", types.NewInt()),
		types.NewColumn("name", types.NewString()),
	)

	det := drift.Detect("test_table", expected, actual, nil)

	require.Len(t, det.Diagnostics, 1)
	assert.Equal(t, diag.DriftColumnDropped, det.Diagnostics[0].Code)
	assert.Contains(t, det.Diagnostics[0].Message, "amount")
	assert.True(t, det.HasErrors())
}

func TestDetectTypeChange(t *testing.T) {
	expected := testSchema()
	actual := types.NewSchema(
		types.NewColumn("id", types.NewString()),
		types.NewColumn("name", types.NewString()),
		types.NewColumn("amount", types.NewDecimal(types.U16(10), types.U16(2))),
	)

	det := drift.Detect("test_table", expected, actual, nil)

	require.Len(t, det.Diagnostics, 1)
	assert.Equal(t, diag.DriftTypeChange, det.Diagnostics[0].Code)
	assert.Contains(t, det.Diagnostics[0].Message, "id")
}

func TestDetectDecimalPrecisionMismatchIsDrift(t *testing.T) {
	expected := testSchema()
	actual := types.NewSchema(
		types.NewColumn("id", types.NewInt()),
		types.NewColumn("name", types.NewString()),
		types.NewColumn("amount", types.NewDecimal(types.U16(20), types.U16(4))),
	)

	det := drift.Detect("test_table", expected, actual, nil)

	require.Len(t, det.Diagnostics, 1)
	assert.Equal(t, diag.DriftTypeChange, det.Diagnostics[0].Code)
}

func TestDetectNewColumn(t *testing.T) {
	expected := testSchema()
	actual := types.NewSchema(
		types.NewColumn("id", types.NewInt()),
		types.NewColumn("name", types.NewString()),
		types.NewColumn("amount", types.NewDecimal(types.U16(10), types.U16(2))),
		types.NewColumn("new_col", types.NewString()),
	)

	det := drift.Detect("test_table", expected, actual, nil)

	require.Len(t, det.Diagnostics, 1)
	assert.Equal(t, diag.DriftColumnAdded, det.Diagnostics[0].Code)
	assert.Contains(t, det.Diagnostics[0].Message, "new_col")
	assert.True(t, det.HasInfo())
	assert.False(t, det.HasErrors())
}

func TestDetectMultipleDrifts(t *testing.T) {
	expected := testSchema()
	actual := types.NewSchema(
		types.NewColumn("id", types.NewString()),
		types.NewColumn("name", types.NewString()),
		types.NewColumn("extra", types.NewInt()),
	)

	det := drift.Detect("test_table", expected, actual, nil)

	errors, infos := 0, 0
	for _, d := range det.Diagnostics {
		switch d.Severity {
		case diag.SeverityError:
			errors++
		case diag.SeverityInfo:
			infos++
		}
	}
	assert.Equal(t, 2, errors)
	assert.Equal(t, 1, infos)
	assert.True(t, det.HasErrors())
	assert.True(t, det.HasInfo())
}

func TestTypesMatchUnknownAlwaysMatches(t *testing.T) {
	assert.True(t, drift.TypesMatch(types.NewUnknown(), types.NewInt()))
	assert.True(t, drift.TypesMatch(types.NewString(), types.NewUnknown()))
	assert.False(t, drift.TypesMatch(types.NewInt(), types.NewFloat()))
	assert.True(t, drift.TypesMatch(
		types.NewDecimal(types.U16(10), types.U16(2)),
		types.NewDecimal(types.U16(10), types.U16(2)),
	))
	assert.False(t, drift.TypesMatch(
		types.NewDecimal(types.U16(10), types.U16(2)),
		types.NewDecimal(types.U16(20), types.U16(4)),
	))
}
