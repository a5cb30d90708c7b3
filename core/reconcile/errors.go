package reconcile

import (
	"errors"
	"fmt"

	"inventory-reconciler/core/retry"
)

// ErrRunCancelled is returned when the run's context is cancelled or its
// timeout expires. Nothing is persisted for a cancelled run.
var ErrRunCancelled = errors.New("reconciliation run cancelled")

// ErrMalformedRecord is returned by key extractors when a required field is
// missing. It is never retried.
var ErrMalformedRecord = errors.New("malformed record")

// TransientSourceError is a retryable failure of a source fetch.
type TransientSourceError struct {
	Source string
	Err    error
}

func (e *TransientSourceError) Error() string {
	return fmt.Sprintf("transient error from %s: %v", e.Source, e.Err)
}

func (e *TransientSourceError) Unwrap() error {
	return e.Err
}

// ComparisonFailedError records why a comparison could not complete.
type ComparisonFailedError struct {
	Comparison string
	Err        error
}

func (e *ComparisonFailedError) Error() string {
	return fmt.Sprintf("comparison %s failed: %v", e.Comparison, e.Err)
}

func (e *ComparisonFailedError) Unwrap() error {
	return e.Err
}

// ConfigurationError is a missing or invalid source location.
// It aborts the whole run before any comparison starts.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error for %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError builds a ConfigurationError. It is permanent for the
// retry policy.
func NewConfigurationError(source, reason string, err error) error {
	return retry.Permanent(&ConfigurationError{Source: source, Reason: reason, Err: err})
}

// PersistenceError is a failed report write.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist report: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Malformed returns a permanent ErrMalformedRecord describing the record.
func Malformed(kind SourceKind, format string, args ...any) error {
	return retry.Permanent(fmt.Errorf("%w: %s: %s", ErrMalformedRecord, kind, fmt.Sprintf(format, args...)))
}
