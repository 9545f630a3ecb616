// Package domain holds XZepr's entities, value-typed identifiers, and the
// repository/validation port contracts the infrastructure layer implements.
//
// Entities expose only total, validated constructors: malformed input is
// rejected with a typed *ValidationError carrying the offending field name
// rather than a panic or a zero-value escape hatch.
package domain

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// entropySource is process-wide and safe for concurrent use: ulid.Monotonic
// wraps its reader with its own mutex.
var entropySource = ulid.Monotonic(rand.Reader, 0)

// newULID mints a fresh, time-sortable 26-character identifier.
func newULID() string {
	return ulid.MustNew(ulid.Now(), entropySource).String()
}

// EventReceiverID identifies a registered ingestion endpoint and schema.
type EventReceiverID string

// EventID identifies one immutable ingested occurrence.
type EventID string

// EventReceiverGroupID identifies a named collection of receivers.
type EventReceiverGroupID string

// UserID identifies an authentication principal.
type UserID string

// NewEventReceiverID mints a fresh receiver id.
func NewEventReceiverID() EventReceiverID { return EventReceiverID(newULID()) }

// NewEventID mints a fresh event id.
func NewEventID() EventID { return EventID(newULID()) }

// NewEventReceiverGroupID mints a fresh group id.
func NewEventReceiverGroupID() EventReceiverGroupID { return EventReceiverGroupID(newULID()) }

// NewUserID mints a fresh user id.
func NewUserID() UserID { return UserID(newULID()) }

// ParseEventReceiverID validates s is a well-formed ULID and returns it typed.
func ParseEventReceiverID(s string) (EventReceiverID, error) {
	if err := validateULID(s); err != nil {
		return "", err
	}
	return EventReceiverID(s), nil
}

// ParseEventID validates s is a well-formed ULID and returns it typed.
func ParseEventID(s string) (EventID, error) {
	if err := validateULID(s); err != nil {
		return "", err
	}
	return EventID(s), nil
}

// ParseEventReceiverGroupID validates s is a well-formed ULID and returns it typed.
func ParseEventReceiverGroupID(s string) (EventReceiverGroupID, error) {
	if err := validateULID(s); err != nil {
		return "", err
	}
	return EventReceiverGroupID(s), nil
}

// ParseUserID validates s is a well-formed ULID and returns it typed.
func ParseUserID(s string) (UserID, error) {
	if err := validateULID(s); err != nil {
		return "", err
	}
	return UserID(s), nil
}

func validateULID(s string) error {
	if _, err := ulid.ParseStrict(s); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedID, err)
	}
	return nil
}
