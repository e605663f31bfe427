package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ValidationError represents a validation error in the domain
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match typed validation errors.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr) || errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RequireUserID rejects an empty user scope. Every per-user read and write
// goes through it.
func RequireUserID(userID string) error {
	if userID == "" {
		return NewValidationError("userId", "is required")
	}
	return nil
}
