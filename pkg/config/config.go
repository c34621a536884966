// SPDX-License-Identifier: Apache-2.0

// Package config loads and normalizes the sqlcontract TOML configuration:
// dialect selection, severity overrides, the allowlist policy, the
// optional warehouse connection, and the sensitive-data redaction switch.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
)

// Allowlist is the lenient-compatibility and skip policy. AllowWidening
// and AllowExtraColumns are copied into contract diffing's policy; drift
// detection consults only SkipModels.
type Allowlist struct {
	AllowWidening     bool     `toml:"allow_widening"`
	AllowExtraColumns bool     `toml:"allow_extra_columns"`
	SkipModels        []string `toml:"skip_models"`
}

// WarehouseConfig names the pluggable warehouse adapter this run should
// construct, if any. Absent when no live drift check is configured.
type WarehouseConfig struct {
	Type string `toml:"type"`
	DSN  string `toml:"dsn"`
}

// Config is the fully-decoded, not-yet-validated configuration surface
// (spec.md §6 "Configuration surface"). Unrecognized top-level keys are a
// warning (returned in Result.Warnings), never a fatal error — this is a
// duck-typed configuration, not a closed schema.
type Config struct {
	Dialect             sqlast.Dialect    `toml:"dialect"`
	SeverityOverrides   map[string]string `toml:"severity_overrides"`
	Allowlist           Allowlist         `toml:"allowlist"`
	Warehouse           *WarehouseConfig  `toml:"warehouse"`
	RedactSensitiveData bool              `toml:"redact_sensitive_data"`
}

// Result wraps a loaded configuration alongside any non-fatal warnings
// collected while decoding it.
type Result struct {
	Config   Config
	Warnings []string
}

var knownTopLevelKeys = map[string]struct{}{
	"dialect":               {},
	"severity_overrides":    {},
	"allowlist":             {},
	"warehouse":             {},
	"redact_sensitive_data": {},
}

var validDialects = map[sqlast.Dialect]struct{}{
	sqlast.ANSI:       {},
	sqlast.BigQuery:   {},
	sqlast.PostgreSQL: {},
	sqlast.Snowflake:  {},
}

// Load reads and decodes a TOML configuration file from path.
func Load(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses raw TOML bytes into a Config, defaulting the dialect to
// ANSI and flagging (but not rejecting) unrecognized top-level keys.
func Decode(data []byte) (Result, error) {
	var res Result

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return res, fmt.Errorf("config: decode: %w", err)
	}

	if cfg.Dialect == "" {
		cfg.Dialect = sqlast.ANSI
	}
	if _, ok := validDialects[cfg.Dialect]; !ok {
		return res, fmt.Errorf("config: unsupported dialect %q", cfg.Dialect)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return res, fmt.Errorf("config: decode: %w", err)
	}
	for key := range raw {
		if _, ok := knownTopLevelKeys[key]; !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown configuration key %q", key))
		}
	}

	res.Config = cfg
	return res, nil
}

// SeverityOverrideMap converts the TOML-decoded string-keyed override map
// into the typed map pkg/diag.ApplySeverityOverrides expects. Unrecognized
// severity values are dropped rather than rejected, matching the
// duck-typed-configuration stance applied to unknown keys.
func (c Config) SeverityOverrideMap() map[diag.Code]diag.Severity {
	out := make(map[diag.Code]diag.Severity, len(c.SeverityOverrides))
	for code, sev := range c.SeverityOverrides {
		switch diag.Severity(sev) {
		case diag.SeverityError, diag.SeverityWarn, diag.SeverityInfo:
			out[diag.Code(code)] = diag.Severity(sev)
		}
	}
	return out
}

// SkipsModel reports whether uniqueID matches one of the allowlist's
// skip_models glob patterns. `*` matches any sequence of characters;
// unique_ids are dot-separated, not path-separated, so filepath.Match's
// separator-stopping behavior never triggers here.
func (c Config) SkipsModel(uniqueID string) bool {
	for _, pattern := range c.Allowlist.SkipModels {
		if ok, err := filepath.Match(pattern, uniqueID); err == nil && ok {
			return true
		}
	}
	return false
}
