package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when input validation fails.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation would violate a lifecycle
	// constraint, such as deleting the active profile.
	ErrConflict = errors.New("conflict")
	// ErrUpstream is returned when an external service call fails.
	ErrUpstream = errors.New("upstream service error")
	// ErrIntegrity is returned when persisted state breaks an invariant that
	// should be unreachable, such as no active profile existing. It is never
	// healed silently.
	ErrIntegrity = errors.New("integrity fault")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap makes ValidationError match ErrValidation under errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
