// SPDX-License-Identifier: Apache-2.0

// Package logging is the analysis pipeline's structured progress/debug
// logging facade: check progress, model parses, contract and drift checks,
// schema cache hits and misses, and warehouse fetch retries all go through
// a Logger rather than calling
// pterm directly, so a CLI invocation can swap in a silent logger without
// touching the pipeline itself.
package logging

import "github.com/pterm/pterm"

// Logger is responsible for logging the pipeline's progress as it checks
// a project's models.
type Logger interface {
	LogCheckStart(modelCount int)
	LogCheckComplete(errorCount, warningCount int)

	LogModelParseStart(path string)
	LogModelParseComplete(path string)

	LogContractCheck(uniqueID string, diagnosticCount int)
	LogDriftCheck(uniqueID string, diagnosticCount int)

	LogCacheHit(tableKey string)
	LogCacheMiss(tableKey string)
	LogWarehouseFetchRetry(tableKey string, attempt int)

	Info(msg string, args ...any)
}

type pipelineLogger struct {
	logger pterm.Logger
}

type noopLogger struct{}

// NewLogger builds a Logger backed by pterm's default structured logger.
func NewLogger() Logger {
	return &pipelineLogger{logger: pterm.DefaultLogger}
}

// NewNoopLogger builds a Logger that discards everything, for tests and
// library callers that manage their own output.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *pipelineLogger) LogCheckStart(modelCount int) {
	l.logger.Info("starting check run", l.logger.Args("model_count", modelCount))
}

func (l *pipelineLogger) LogCheckComplete(errorCount, warningCount int) {
	l.logger.Info("check run complete", l.logger.Args([]any{
		"error_count", errorCount,
		"warning_count", warningCount,
	}))
}

func (l *pipelineLogger) LogModelParseStart(path string) {
	l.logger.Info("parsing model", l.logger.Args("path", path))
}

func (l *pipelineLogger) LogModelParseComplete(path string) {
	l.logger.Info("parsed model", l.logger.Args("path", path))
}

func (l *pipelineLogger) LogContractCheck(uniqueID string, diagnosticCount int) {
	l.logger.Info("checked contract", l.logger.Args([]any{
		"unique_id", uniqueID,
		"diagnostic_count", diagnosticCount,
	}))
}

func (l *pipelineLogger) LogDriftCheck(uniqueID string, diagnosticCount int) {
	l.logger.Info("checked drift", l.logger.Args([]any{
		"unique_id", uniqueID,
		"diagnostic_count", diagnosticCount,
	}))
}

func (l *pipelineLogger) LogCacheHit(tableKey string) {
	l.logger.Debug("warehouse schema cache hit", l.logger.Args("table", tableKey))
}

func (l *pipelineLogger) LogCacheMiss(tableKey string) {
	l.logger.Debug("warehouse schema cache miss", l.logger.Args("table", tableKey))
}

func (l *pipelineLogger) LogWarehouseFetchRetry(tableKey string, attempt int) {
	l.logger.Warn("retrying warehouse fetch", l.logger.Args([]any{
		"table", tableKey,
		"attempt", attempt,
	}))
}

func (l *pipelineLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

func (l *noopLogger) LogCheckStart(modelCount int)                     {}
func (l *noopLogger) LogCheckComplete(errorCount, warningCount int)     {}
func (l *noopLogger) LogModelParseStart(path string)                   {}
func (l *noopLogger) LogModelParseComplete(path string)                {}
func (l *noopLogger) LogContractCheck(uniqueID string, count int)      {}
func (l *noopLogger) LogDriftCheck(uniqueID string, count int)         {}
func (l *noopLogger) LogCacheHit(tableKey string)                      {}
func (l *noopLogger) LogCacheMiss(tableKey string)                     {}
func (l *noopLogger) LogWarehouseFetchRetry(tableKey string, attempt int) {}
func (l *noopLogger) Info(msg string, args ...any)                     {}
