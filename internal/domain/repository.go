package domain

import (
	"context"
	"time"
)

// DefaultPageLimit and MaxPageLimit bound list/pagination queries (spec.md
// §4.3: "limit ∈ [1, 1000]; exceeding returns a ValidationError").
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 1000
)

// ValidateLimit enforces the pagination bound shared by every repository.
func ValidateLimit(limit int) error {
	if limit < 1 || limit > MaxPageLimit {
		return NewValidationError("limit", "must be between 1 and 1000")
	}
	return nil
}

// EventCriteria filters Event lookups (spec.md §4.3 find_by_criteria).
type EventCriteria struct {
	Name       *string
	ReceiverID *EventReceiverID
	PlatformID *string
	Success    *bool
	Limit      int
	Offset     int
}

// EventReceiverRepository is the persistence port for EventReceiver.
type EventReceiverRepository interface {
	// Save is an idempotent upsert on fingerprint match: if a receiver with
	// the same Fingerprint already exists, its stored id is returned and no
	// new row is written (spec.md §3, §4.3).
	Save(ctx context.Context, r *EventReceiver) (EventReceiverID, error)
	FindByID(ctx context.Context, id EventReceiverID) (*EventReceiver, error)
	FindByFingerprint(ctx context.Context, fp Fingerprint) (*EventReceiver, error)
	FindByOwner(ctx context.Context, ownerID UserID, limit, offset int) ([]*EventReceiver, error)
	IsOwner(ctx context.Context, id EventReceiverID, userID UserID) (bool, error)
	GetResourceVersion(ctx context.Context, id EventReceiverID) (int64, error)
	// Update applies a field change, bumping ResourceVersion only when
	// fingerprint-contributing fields actually changed (spec.md §3), and
	// fails with *ConflictError on a resource_version mismatch.
	Update(ctx context.Context, r *EventReceiver, expectedVersion int64) error
	Delete(ctx context.Context, id EventReceiverID) error
	List(ctx context.Context, limit, offset int) ([]*EventReceiver, error)
}

// EventRepository is the persistence port for Event.
type EventRepository interface {
	Save(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, id EventID) (*Event, error)
	FindByOwner(ctx context.Context, ownerID UserID, limit, offset int) ([]*Event, error)
	FindByReceiverID(ctx context.Context, receiverID EventReceiverID, limit, offset int) ([]*Event, error)
	FindByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Event, error)
	FindByCriteria(ctx context.Context, criteria EventCriteria) ([]*Event, error)
	IsOwner(ctx context.Context, id EventID, userID UserID) (bool, error)
	GetResourceVersion(ctx context.Context, id EventID) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByReceiverID(ctx context.Context, receiverID EventReceiverID) (int64, error)
}

// EventReceiverGroupRepository is the persistence port for
// EventReceiverGroup and its membership junction rows.
type EventReceiverGroupRepository interface {
	Save(ctx context.Context, g *EventReceiverGroup) error
	FindByID(ctx context.Context, id EventReceiverGroupID) (*EventReceiverGroup, error)
	FindByOwner(ctx context.Context, ownerID UserID, limit, offset int) ([]*EventReceiverGroup, error)
	IsOwner(ctx context.Context, id EventReceiverGroupID, userID UserID) (bool, error)
	GetResourceVersion(ctx context.Context, id EventReceiverGroupID) (int64, error)
	Update(ctx context.Context, g *EventReceiverGroup, expectedVersion int64) error
	Delete(ctx context.Context, id EventReceiverGroupID) error
	List(ctx context.Context, limit, offset int) ([]*EventReceiverGroup, error)

	IsMember(ctx context.Context, groupID EventReceiverGroupID, userID UserID) (bool, error)
	GetMembers(ctx context.Context, groupID EventReceiverGroupID) ([]*GroupMembership, error)
	AddMember(ctx context.Context, m *GroupMembership) error
	RemoveMember(ctx context.Context, groupID EventReceiverGroupID, userID UserID) error
	FindGroupsForUser(ctx context.Context, userID UserID) ([]*EventReceiverGroup, error)
}

// UserRepository is the persistence port for User.
type UserRepository interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id UserID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByProviderSubject(ctx context.Context, provider Provider, subject string) (*User, error)
	Update(ctx context.Context, u *User) error
}
