package domain

import "time"

// EventReceiverGroup is a named collection of receivers plus an explicit
// member list used for authorization (spec.md §3). ResourceVersion
// increments on every mutation: enable/disable, member add/remove, or a
// change to the receiver set.
type EventReceiverGroup struct {
	ID              EventReceiverGroupID
	Name            string
	Type            string
	Version         string
	Description     string
	Enabled         bool
	EventReceiverIDs []EventReceiverID
	OwnerID         UserID
	ResourceVersion int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewEventReceiverGroupParams carries the caller-supplied fields for construction.
type NewEventReceiverGroupParams struct {
	Name             string
	Type             string
	Version          string
	Description      string
	Enabled          bool
	EventReceiverIDs []EventReceiverID
	OwnerID          UserID
}

// NewEventReceiverGroup validates params, rejecting duplicate receiver ids
// (spec.md §3 invariant), and returns a fresh group with ResourceVersion 1.
func NewEventReceiverGroup(p NewEventReceiverGroupParams, now time.Time) (*EventReceiverGroup, error) {
	if p.Name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	if p.Type == "" {
		return nil, NewValidationError("type", "must not be empty")
	}
	if p.Version == "" {
		return nil, NewValidationError("version", "must not be empty")
	}
	if p.OwnerID == "" {
		return nil, NewValidationError("owner_id", "must not be empty")
	}

	seen := make(map[EventReceiverID]struct{}, len(p.EventReceiverIDs))
	for _, id := range p.EventReceiverIDs {
		if _, dup := seen[id]; dup {
			return nil, NewValidationError("event_receiver_ids", "must not contain duplicates")
		}
		seen[id] = struct{}{}
	}

	ts := now.UTC()
	return &EventReceiverGroup{
		ID:               NewEventReceiverGroupID(),
		Name:             p.Name,
		Type:             p.Type,
		Version:          p.Version,
		Description:      p.Description,
		Enabled:          p.Enabled,
		EventReceiverIDs: append([]EventReceiverID(nil), p.EventReceiverIDs...),
		OwnerID:          p.OwnerID,
		ResourceVersion:  1,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}, nil
}

// HasReceiver reports whether id is a member of the group's receiver set.
func (g *EventReceiverGroup) HasReceiver(id EventReceiverID) bool {
	for _, existing := range g.EventReceiverIDs {
		if existing == id {
			return true
		}
	}
	return false
}
