package models

import "errors"

// ErrorKind classifies a failure so callers can decide whether to retry,
// surface, or silently recover.
type ErrorKind string

const (
	// ErrorKindTransient covers retryable failures: 5xx, 429, timeouts,
	// and JSON-parse errors at an adapter boundary.
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindRateLimited is 429 specifically; it triggers longer
	// backoff and batch-size shrink in the fetch pipeline.
	ErrorKindRateLimited ErrorKind = "rate_limited"
	// ErrorKindNotFound maps to HTTP 404.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindMalformed is a non-retryable bad response shape.
	ErrorKindMalformed ErrorKind = "malformed"
	// ErrorKindValidation is a bad request from the caller.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindConflict is a unique-constraint violation on upsert.
	ErrorKindConflict ErrorKind = "conflict"
	// ErrorKindFatal covers store connectivity and misconfiguration.
	ErrorKindFatal ErrorKind = "fatal"
)

// KindedError wraps an underlying error with the ErrorKind callers need
// to decide retry/surface/recover behavior.
type KindedError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindedError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *KindedError) Unwrap() error {
	return e.Err
}

// NewKindedError builds a KindedError of the given kind.
func NewKindedError(kind ErrorKind, err error) *KindedError {
	return &KindedError{Kind: kind, Err: err}
}

// Retryable reports whether the error kind is locally recoverable via
// retry (Transient or RateLimited).
func (e *KindedError) Retryable() bool {
	return e.Kind == ErrorKindTransient || e.Kind == ErrorKindRateLimited
}

// KindOf extracts the ErrorKind from err if it is (or wraps) a
// *KindedError, defaulting to ErrorKindFatal otherwise.
func KindOf(err error) ErrorKind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ErrorKindFatal
}

var (
	// ErrNotFound is a sentinel usable with errors.Is for store lookups.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by idempotent creates that no-op.
	ErrAlreadyExists = errors.New("already exists")
)
