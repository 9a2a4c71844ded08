// Package reperrors provides the structured error type used across the
// admin backend: every failure carries a category, a severity and a retry
// strategy, so HTTP handlers, the CLI and the logger can all route it
// without string matching.
package reperrors

import (
	"errors"
	"fmt"
)

// Error is a classified error. Construct instances through New/Wrap and the
// convenience builders; the zero value is not meaningful.
type Error struct {
	category Category
	severity Severity
	retry    RetryStrategy
	message  string
	cause    error
	context  Context
}

// Error implements the standard error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *Error) Category() Category {
	return e.category
}

// Severity returns the error severity.
func (e *Error) Severity() Severity {
	return e.severity
}

// RetryStrategy returns the recommended retry strategy.
func (e *Error) RetryStrategy() RetryStrategy {
	return e.retry
}

// Message returns the error message without classification markers.
func (e *Error) Message() string {
	return e.message
}

// Context returns the structured detail attached to the error.
func (e *Error) Context() Context {
	return e.context
}

// WithContext returns a copy of the error with one more context value.
func (e *Error) WithContext(key string, value any) *Error {
	clone := *e
	clone.context = e.context.Merge(Context{key: value})
	return &clone
}

// Is matches two classified errors on category and message, which lets
// sentinel-style comparisons work through errors.Is.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// CanRetry reports whether the error permits automatic retry.
func (e *Error) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// IsFatal reports whether execution should stop.
func (e *Error) IsFatal() bool {
	return e.severity == SeverityFatal
}

// As attempts to extract a classified error from anywhere in the chain.
func As(err error) (*Error, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether any error in the chain carries the category.
func HasCategory(err error, category Category) bool {
	if classified, ok := As(err); ok {
		return classified.category == category
	}
	return false
}

// GetCategory extracts the category, defaulting to CategoryInternal for
// unclassified errors.
func GetCategory(err error) Category {
	if classified, ok := As(err); ok {
		return classified.category
	}
	return CategoryInternal
}

// GetSeverity extracts the severity, defaulting to SeverityError.
func GetSeverity(err error) Severity {
	if classified, ok := As(err); ok {
		return classified.severity
	}
	return SeverityError
}

// GetRetryStrategy extracts the retry strategy, defaulting to RetryNever.
func GetRetryStrategy(err error) RetryStrategy {
	if classified, ok := As(err); ok {
		return classified.retry
	}
	return RetryNever
}
