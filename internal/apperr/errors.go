// Package apperr defines the error kinds shared by the store, the domain
// services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized")
	ErrUnauthorized = errors.New("not authenticated")
	ErrUnavailable  = errors.New("storage unavailable")

	// ErrNoProfile is returned when a student-scoped operation is attempted by
	// a caller whose account has no linked student record.
	ErrNoProfile = fmt.Errorf("no student profile linked: %w", ErrForbidden)
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError carries the failing fields of a rejected record. It always
// matches ErrValidation and additionally unwraps to its cause.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// Invalid builds a validation error for a single field.
func Invalid(field, msg string) error {
	return &ValidationError{
		Err:    fmt.Errorf("%s: %s", field, msg),
		Fields: []FieldError{{Field: field, Error: msg}},
	}
}

// Duplicate reports a uniqueness violation on field.
func Duplicate(field, value string) error {
	return &ValidationError{
		Err:    fmt.Errorf("%s %q %w", field, value, ErrDuplicate),
		Fields: []FieldError{{Field: field, Error: "must be unique"}},
	}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFound wraps ErrNotFound with the kind of record that was missing.
func NotFound(kind string) error {
	return fmt.Errorf("%s %w", kind, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// Unavailable wraps a connectivity failure so that it matches ErrUnavailable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Unauthorized wraps ErrUnauthorized with a reason.
func Unauthorized(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}
