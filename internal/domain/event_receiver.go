package domain

import "time"

// EventReceiver is a registered ingestion endpoint and schema (spec.md §3).
//
// Fingerprint uniquely determines (Name, Type, Version, Schema): duplicate
// creation attempts are idempotent on fingerprint match and return the
// existing id rather than a new row. ResourceVersion starts at 1 and is
// incremented only when a fingerprint-contributing field changes —
// description edits alone never bump it.
type EventReceiver struct {
	ID              EventReceiverID
	Name            string
	Type            string
	Version         string
	Description     string
	Schema          any
	Fingerprint     Fingerprint
	OwnerID         UserID
	ResourceVersion int64
	CreatedAt       time.Time
}

// NewEventReceiverParams carries the caller-supplied fields for construction.
type NewEventReceiverParams struct {
	Name        string
	Type        string
	Version     string
	Description string
	Schema      any
	OwnerID     UserID
}

// NewEventReceiver validates params and returns a fresh EventReceiver with
// ResourceVersion 1 and a computed Fingerprint. Callers that find an
// existing row with a matching Fingerprint must discard this value and
// return the stored id instead (spec.md §3 idempotent-creation invariant).
func NewEventReceiver(p NewEventReceiverParams, now time.Time) (*EventReceiver, error) {
	if p.Name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	if len(p.Name) > 255 {
		return nil, NewValidationError("name", "must be at most 255 characters")
	}
	if p.Type == "" {
		return nil, NewValidationError("type", "must not be empty")
	}
	if len(p.Type) > 255 {
		return nil, NewValidationError("type", "must be at most 255 characters")
	}
	if p.Version == "" {
		return nil, NewValidationError("version", "must not be empty")
	}
	if len(p.Version) > 100 {
		return nil, NewValidationError("version", "must be at most 100 characters")
	}
	if p.Schema == nil {
		return nil, NewValidationError("schema", "must be a valid JSON Schema document")
	}
	if p.OwnerID == "" {
		return nil, NewValidationError("owner_id", "must not be empty")
	}

	fp, err := ComputeFingerprint(p.Name, p.Type, p.Version, p.Schema)
	if err != nil {
		return nil, NewValidationError("schema", "could not canonicalize: "+err.Error())
	}

	return &EventReceiver{
		ID:              NewEventReceiverID(),
		Name:            p.Name,
		Type:            p.Type,
		Version:         p.Version,
		Description:     p.Description,
		Schema:          p.Schema,
		Fingerprint:     fp,
		OwnerID:         p.OwnerID,
		ResourceVersion: 1,
		CreatedAt:       now.UTC(),
	}, nil
}

// FingerprintContributingFieldsChanged reports whether updating to the new
// field values would change the Fingerprint, i.e. whether the update must
// bump ResourceVersion (spec.md §3).
func (r *EventReceiver) FingerprintContributingFieldsChanged(name, typ, version string, schema any) (bool, error) {
	newFP, err := ComputeFingerprint(name, typ, version, schema)
	if err != nil {
		return false, err
	}
	return newFP != r.Fingerprint, nil
}
