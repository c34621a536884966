// SPDX-License-Identifier: Apache-2.0

// Package report assembles a single check run's diagnostics into the
// versioned Report JSON document: a summary, the sorted diagnostic list,
// and enough metadata to correlate a run across logs.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/sqlcontract/sqlcontract/pkg/diag"
)

// Version is the Report JSON schema version. The schema is append-only
// within Major; a field is never removed or repurposed without bumping
// Major.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// CurrentVersion is the schema version this package emits.
var CurrentVersion = Version{Major: 1, Minor: 0}

// Summary tallies a run's diagnostics by severity, plus how much ground
// the run covered.
type Summary struct {
	Total               int `json:"total"`
	Errors              int `json:"errors"`
	Warnings            int `json:"warnings"`
	Info                int `json:"info"`
	ModelsChecked       int `json:"models_checked"`
	ContractsValidated int `json:"contracts_validated"`
}

// Report is the top-level Report JSON document.
type Report struct {
	Version     Version           `json:"version"`
	Timestamp   time.Time         `json:"timestamp"`
	RunID       string            `json:"run_id"`
	Summary     Summary           `json:"summary"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasErrors reports whether any diagnostic is an error — the run's exit
// code per spec.md §7 ("non-zero iff any diagnostic has severity Error").
func (r Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// Builder accumulates diagnostics and coverage counters across a check
// run, then renders a single Report. It is not safe for concurrent use;
// callers fan diagnostics in from a single goroutine (e.g. cmd's
// runPipeline model loop), same as the teacher's own single-writer
// migration log.
type Builder struct {
	now                func() time.Time
	diagnostics        []diag.Diagnostic
	modelsChecked      int
	contractsValidated int
	metadata           map[string]string
	redact             bool
	severityOverrides  map[diag.Code]diag.Severity
}

// NewBuilder constructs an empty Builder. redact and overrides mirror the
// configuration surface's redact_sensitive_data flag and severity
// overrides map; both are applied once, at Build time, to every
// diagnostic collected, not as each is added.
func NewBuilder(redact bool, overrides map[diag.Code]diag.Severity) *Builder {
	return &Builder{now: time.Now, redact: redact, severityOverrides: overrides}
}

// AddDiagnostics appends ds to the run's diagnostic set.
func (b *Builder) AddDiagnostics(ds ...diag.Diagnostic) {
	b.diagnostics = append(b.diagnostics, ds...)
}

// ModelChecked increments the count of models the run visited, whether or
// not the model had a contract to validate.
func (b *Builder) ModelChecked() { b.modelsChecked++ }

// ContractValidated increments the count of models whose enforced
// contract was actually diffed against an inferred schema.
func (b *Builder) ContractValidated() { b.contractsValidated++ }

// WithMetadata attaches a free-form metadata entry (e.g. manifest path,
// dbt project name) to the rendered Report.
func (b *Builder) WithMetadata(key, value string) {
	if b.metadata == nil {
		b.metadata = make(map[string]string)
	}
	b.metadata[key] = value
}

// Build renders the accumulated state into a Report: severity overrides
// are applied, then redaction if configured, then the total order from
// spec.md §3, then the summary is tallied from the final (overridden,
// possibly redacted) diagnostic set.
func (b *Builder) Build() Report {
	ds := make([]diag.Diagnostic, len(b.diagnostics))
	copy(ds, b.diagnostics)

	if b.severityOverrides != nil {
		ds = diag.ApplySeverityOverrides(ds, b.severityOverrides)
	}
	if b.redact {
		ds = diag.RedactAll(ds)
	}
	diag.Sort(ds)

	summary := Summary{
		Total:              len(ds),
		ModelsChecked:      b.modelsChecked,
		ContractsValidated: b.contractsValidated,
	}
	for _, d := range ds {
		switch d.Severity {
		case diag.SeverityError:
			summary.Errors++
		case diag.SeverityWarn:
			summary.Warnings++
		case diag.SeverityInfo:
			summary.Info++
		}
	}

	now := time.Now
	if b.now != nil {
		now = b.now
	}

	return Report{
		Version:     CurrentVersion,
		Timestamp:   now().UTC(),
		RunID:       uuid.NewString(),
		Summary:     summary,
		Diagnostics: ds,
		Metadata:    b.metadata,
	}
}
