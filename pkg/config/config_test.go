// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlcontract/sqlcontract/pkg/config"
	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
)

func TestDecodeDefaultsDialectToANSI(t *testing.T) {
	res, err := config.Decode([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, sqlast.ANSI, res.Config.Dialect)
}

func TestDecodeRejectsUnsupportedDialect(t *testing.T) {
	_, err := config.Decode([]byte(`dialect = "oracle"`))
	assert.Error(t, err)
}

func TestDecodeFullConfig(t *testing.T) {
	data := []byte(`
dialect = "bigquery"
redact_sensitive_data = true

[severity_overrides]
CONTRACT_EXTRA_COLUMN = "warn"

[allowlist]
allow_widening = true
allow_extra_columns = false
skip_models = ["model.staging.*", "model.legacy.quarantine_orders"]

[warehouse]
type = "postgres"
dsn = "postgres://localhost/warehouse"
`)

	res, err := config.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	cfg := res.Config
	assert.Equal(t, sqlast.BigQuery, cfg.Dialect)
	assert.True(t, cfg.RedactSensitiveData)
	assert.True(t, cfg.Allowlist.AllowWidening)
	assert.False(t, cfg.Allowlist.AllowExtraColumns)
	require.NotNil(t, cfg.Warehouse)
	assert.Equal(t, "postgres", cfg.Warehouse.Type)

	overrides := cfg.SeverityOverrideMap()
	assert.Equal(t, diag.SeverityWarn, overrides[diag.ContractExtraColumn])

	assert.True(t, cfg.SkipsModel("model.staging.stg_orders"))
	assert.True(t, cfg.SkipsModel("model.legacy.quarantine_orders"))
	assert.False(t, cfg.SkipsModel("model.marts.fct_orders"))
}

func TestDecodeWarnsOnUnknownTopLevelKey(t *testing.T) {
	res, err := config.Decode([]byte(`dialect = "ansi"
typo_field = 1
`))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "typo_field")
}

func TestSeverityOverrideMapDropsUnrecognizedSeverity(t *testing.T) {
	cfg := config.Config{SeverityOverrides: map[string]string{
		"SQL_PARSE_ERROR": "critical",
		"DRIFT_TYPE_CHANGE": "error",
	}}
	overrides := cfg.SeverityOverrideMap()
	assert.Len(t, overrides, 1)
	assert.Equal(t, diag.SeverityError, overrides[diag.DriftTypeChange])
}

func TestSkipsModelGlobStarIsAnySequence(t *testing.T) {
	cfg := config.Config{Allowlist: config.Allowlist{SkipModels: []string{
		"model.staging.*",
		"model.legacy.quarantine_orders",
	}}}
	assert.True(t, cfg.SkipsModel("model.staging.stg_orders"))
	assert.True(t, cfg.SkipsModel("model.legacy.quarantine_orders"))
	assert.False(t, cfg.SkipsModel("model.marts.stg_orders"))
	assert.False(t, cfg.SkipsModel("model.marts.fct_orders"))
}
