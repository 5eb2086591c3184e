// Package errors defines the typed error taxonomy described in the
// analysis core's error-handling design: caller-facing errors that must
// propagate intact (InvalidInput, NotFound, Cancelled), per-file errors
// that become error FileAnalysis records (UnsupportedLanguage,
// ResourceExceeded), and silently-recovered errors that are logged but
// never fail the overall operation (DegradedSidecar, CacheUnavailable,
// PersistFailed, ParsePartial).
package errors

import (
	"fmt"
	"time"
)

// Kind tags the taxonomy entry an error belongs to.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
	KindUnsupportedLanguage Kind = "unsupported_language"
	KindResourceExceeded    Kind = "resource_exceeded"
	KindParsePartial        Kind = "parse_partial"
	KindDegradedSidecar     Kind = "degraded_sidecar"
	KindCacheUnavailable    Kind = "cache_unavailable"
	KindPersistFailed       Kind = "persist_failed"
	KindCancelled           Kind = "cancelled"
	KindNotScanned          Kind = "not_scanned"
)

// CoreError is the common shape for every error this package returns.
type CoreError struct {
	Kind       Kind
	Operation  string
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

// New creates a CoreError of the given kind for the given operation.
func New(kind Kind, op string, err error) *CoreError {
	return &CoreError{Kind: kind, Operation: op, Underlying: err, Timestamp: time.Now()}
}

// WithFile attaches a file path to the error for per-file reporting.
func (e *CoreError) WithFile(path string) *CoreError {
	e.FilePath = path
	return e
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e.FilePath != "" {
		if e.Underlying != nil {
			return fmt.Sprintf("%s: %s failed for %s: %v", e.Kind, e.Operation, e.FilePath, e.Underlying)
		}
		return fmt.Sprintf("%s: %s failed for %s", e.Kind, e.Operation, e.FilePath)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed", e.Kind, e.Operation)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target shares this error's Kind, so callers can write
// errors.Is(err, errors.New(errors.KindNotFound, "", nil)) or, more
// idiomatically, use the Kind accessor below.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// IsKind reports whether err is a *CoreError of the given kind.
func IsKind(err error, kind Kind) bool {
	ce, ok := err.(*CoreError)
	if !ok {
		return false
	}
	return ce.Kind == kind
}

// Convenience constructors for the taxonomy entries that are returned
// directly to callers (InvalidInput, NotFound, Cancelled are surfaced
// intact).

func InvalidInput(op, msg string) *CoreError {
	return New(KindInvalidInput, op, fmt.Errorf("%s", msg))
}

func NotFound(op, path string) *CoreError {
	return New(KindNotFound, op, fmt.Errorf("not found")).WithFile(path)
}

func NotScanned(codebaseID string) *CoreError {
	return New(KindNotScanned, "analyze_codebase", fmt.Errorf("codebase %q has not been scanned", codebaseID))
}

func Cancelled(op string) *CoreError {
	return New(KindCancelled, op, fmt.Errorf("operation cancelled"))
}

func UnsupportedLanguage(path, ext string) *CoreError {
	return New(KindUnsupportedLanguage, "parse_file", fmt.Errorf("unsupported extension %q", ext)).WithFile(path)
}

func ResourceExceeded(op, path string, err error) *CoreError {
	return New(KindResourceExceeded, op, err).WithFile(path)
}

// MultiError aggregates independent failures (e.g. several per-file
// analyze tasks failing during a codebase batch) without discarding any
// of them.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nil errors and wraps the rest.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}
