package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the solve pipeline. Callers wrap them with context and
// test with errors.Is.
var (
	// ErrInvalidInput rejects a request before any Job is created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSingularMatrix is returned when a determinant or pivot falls below tolerance.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrNumericOverflow is returned when a solver produces a non-finite value.
	ErrNumericOverflow = errors.New("numeric overflow")

	// ErrProbeUnavailable marks a resource counter that could not be sampled.
	ErrProbeUnavailable = errors.New("resource probe unavailable")
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the linsched API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}

// Invalidf returns an error wrapping ErrInvalidInput with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidTransitionError is returned when a state transition is invalid.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
