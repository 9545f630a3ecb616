package handlers

import (
	"context"
	"errors"

	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/domain"
)

// buildReceiverResource loads the owner field an authorization decision
// over a receiver needs (spec.md §4.9: resource context is "pluggable per
// resource type").
func (s *Server) buildReceiverResource(ctx context.Context, resourceID string) (authz.Resource, bool, error) {
	id, err := domain.ParseEventReceiverID(resourceID)
	if err != nil {
		return authz.Resource{}, false, nil
	}
	r, err := s.receivers.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return authz.Resource{}, false, nil
	}
	if err != nil {
		return authz.Resource{}, false, err
	}
	return authz.Resource{Type: "receiver", ID: resourceID, OwnerID: r.OwnerID, ResourceVersion: r.ResourceVersion}, true, nil
}

// buildEventResource loads the owner field for an event. Events are
// immutable so only read/delete-style decisions reach this builder.
func (s *Server) buildEventResource(ctx context.Context, resourceID string) (authz.Resource, bool, error) {
	id, err := domain.ParseEventID(resourceID)
	if err != nil {
		return authz.Resource{}, false, nil
	}
	e, err := s.events.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return authz.Resource{}, false, nil
	}
	if err != nil {
		return authz.Resource{}, false, err
	}
	return authz.Resource{Type: "event", ID: resourceID, OwnerID: e.OwnerID, ResourceVersion: e.ResourceVersion}, true, nil
}

// buildGroupResource loads owner and member set, the two fields legacy RBAC
// fallback needs for the owner-or-member read rule (spec.md §4.9 point 4).
func (s *Server) buildGroupResource(ctx context.Context, resourceID string) (authz.Resource, bool, error) {
	id, err := domain.ParseEventReceiverGroupID(resourceID)
	if err != nil {
		return authz.Resource{}, false, nil
	}
	g, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return authz.Resource{}, false, nil
	}
	if err != nil {
		return authz.Resource{}, false, err
	}

	members, err := s.groups.GetMembers(ctx, id)
	if err != nil {
		return authz.Resource{}, false, err
	}
	memberIDs := make([]domain.UserID, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}

	return authz.Resource{
		Type: "group", ID: resourceID, OwnerID: g.OwnerID,
		Members: memberIDs, ResourceVersion: g.ResourceVersion,
	}, true, nil
}
