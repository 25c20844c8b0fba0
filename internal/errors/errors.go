// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrContextCanceled indicates context was canceled.
	ErrContextCanceled = errors.New("context canceled")

	// ErrFallbackUnavailable indicates the knowledge fallback service is not
	// configured or failed to produce an answer.
	ErrFallbackUnavailable = errors.New("fallback service unavailable")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// FallbackError represents knowledge fallback call failures with context.
type FallbackError struct {
	Model string
	Err   error
}

func (e *FallbackError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("fallback error (model=%s): %v", e.Model, e.Err)
	}
	return fmt.Sprintf("fallback error: %v", e.Err)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// NewFallbackError creates a new fallback error.
func NewFallbackError(model string, err error) *FallbackError {
	return &FallbackError{
		Model: model,
		Err:   err,
	}
}
