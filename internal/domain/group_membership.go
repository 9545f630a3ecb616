package domain

import "time"

// GroupMembership is a user-in-group association keyed by (GroupID,
// UserID). The group owner is implicitly a member and is never stored here
// (spec.md §3).
type GroupMembership struct {
	GroupID EventReceiverGroupID
	UserID  UserID
	AddedBy UserID
	AddedAt time.Time
}

// NewGroupMembership validates that a user cannot self-add (spec.md §3
// invariant: "user_id ≠ added_by") and returns a fresh membership row.
func NewGroupMembership(groupID EventReceiverGroupID, userID, addedBy UserID, now time.Time) (*GroupMembership, error) {
	if groupID == "" {
		return nil, NewValidationError("group_id", "must not be empty")
	}
	if userID == "" {
		return nil, NewValidationError("user_id", "must not be empty")
	}
	if addedBy == "" {
		return nil, NewValidationError("added_by", "must not be empty")
	}
	if userID == addedBy {
		return nil, NewValidationError("user_id", "a user cannot add themselves to a group")
	}

	return &GroupMembership{
		GroupID: groupID,
		UserID:  userID,
		AddedBy: addedBy,
		AddedAt: now.UTC(),
	}, nil
}
