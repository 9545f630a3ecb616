package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedID is wrapped by ValidationError when a ULID fails to parse.
var ErrMalformedID = errors.New("malformed id")

// ValidationError reports a single offending field on entity construction
// (spec.md §4.1: "Creation rejects malformed inputs with a typed
// ValidationError carrying the offending field name").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a *ValidationError for the named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrNotFound is returned by repositories when find_by_id finds nothing.
var ErrNotFound = errors.New("entity not found")

// ConflictError reports an optimistic-concurrency mismatch or a duplicate
// membership/insert (spec.md §4.3 "Optimistic concurrency", §4.11).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// NewConflictError builds a *ConflictError.
func NewConflictError(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

// IsConflict reports whether err is, or wraps, a *ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
