package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("booking_not_found")
	ErrConflict     = errors.New("booking_conflict")
	ErrInvalidInput = errors.New("invalid_input")
)

// ValidationError names the offending field and value.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func missingField(field string) *ValidationError {
	return NewValidationError(field, "required", fmt.Sprintf("%s is required", field))
}

func invalidEnum(field, value string, allowed ...string) *ValidationError {
	return NewValidationError(field, "invalid_value",
		fmt.Sprintf("invalid %s %q, expected one of %v", field, value, allowed))
}
