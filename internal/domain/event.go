package domain

import "time"

// Event is an immutable record of one occurrence (spec.md §3). Once
// persisted, no field may change; EventReceiverID must reference an
// existing receiver at commit time.
type Event struct {
	ID              EventID
	Name            string
	Version         string
	Release         string
	PlatformID      string
	Package         string
	Description     string
	Payload         any
	Success         bool
	EventReceiverID EventReceiverID
	OwnerID         UserID
	ResourceVersion int64
	CreatedAt       time.Time
}

// NewEventParams carries the caller-supplied fields for construction.
type NewEventParams struct {
	Name            string
	Version         string
	Release         string
	PlatformID      string
	Package         string
	Description     string
	Payload         any
	Success         bool
	EventReceiverID EventReceiverID
	OwnerID         UserID
}

// NewEvent validates params and returns a fresh, immutable Event with
// ResourceVersion fixed at 1 (spec.md §3: "resource_version (always 1)").
// Payload schema validation against the receiver happens one layer up, in
// the ingestion handler (internal/ingest), since it requires the receiver's
// stored schema and the validation port, neither of which the domain layer
// depends on.
func NewEvent(p NewEventParams, now time.Time) (*Event, error) {
	if p.Name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	if p.Version == "" {
		return nil, NewValidationError("version", "must not be empty")
	}
	if p.EventReceiverID == "" {
		return nil, NewValidationError("event_receiver_id", "must not be empty")
	}
	if p.OwnerID == "" {
		return nil, NewValidationError("owner_id", "must not be empty")
	}
	if p.Payload == nil {
		return nil, NewValidationError("payload", "must not be empty")
	}

	return &Event{
		ID:              NewEventID(),
		Name:            p.Name,
		Version:         p.Version,
		Release:         p.Release,
		PlatformID:      p.PlatformID,
		Package:         p.Package,
		Description:     p.Description,
		Payload:         p.Payload,
		Success:         p.Success,
		EventReceiverID: p.EventReceiverID,
		OwnerID:         p.OwnerID,
		ResourceVersion: 1,
		CreatedAt:       now.UTC(),
	}, nil
}
