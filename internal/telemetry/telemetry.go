// Package telemetry provides the analysis core's structured logging and
// timed-scope helpers. Every component receives a *zap.Logger rather than
// reaching for a package-level global, so tests can substitute an
// observer core and the orchestrator can attach request-scoped fields
// (codebase_id, file_path) once at the top of a call.
package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// NewLogger builds the default production logger. Callers that want a
// silent or test logger should use zap.NewNop() / zaptest instead of
// calling this.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Scope brackets a computation with a start/stop timer and guarantees the
// elapsed duration is logged exactly once, whether the scope exits
// normally or the wrapped function panics. This is the explicit
// replacement for a source idiom of "context managers for timed scopes":
// the metric is recorded on both normal and failing exits.
func Scope(log *zap.Logger, name string, fields ...zap.Field) func() {
	start := time.Now()
	done := false
	return func() {
		if done {
			return
		}
		done = true
		elapsed := time.Since(start)
		allFields := make([]zap.Field, 0, len(fields)+2)
		allFields = append(allFields, zap.String("scope", name), zap.Duration("elapsed", elapsed))
		allFields = append(allFields, fields...)
		log.Debug("scope complete", allFields...)
	}
}

// Timed runs fn inside a Scope, recording the elapsed time even if fn
// panics, and re-panics afterward so callers keep normal panic semantics.
func Timed(log *zap.Logger, name string, fn func() error, fields ...zap.Field) error {
	stop := Scope(log, name, fields...)
	defer stop()
	return fn()
}
