package graphqlapi

import (
	"context"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/xbcsmith/xzepr/internal/api/middleware"
	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/domain"
	"github.com/xbcsmith/xzepr/internal/ingest"
)

// Deps holds every dependency the GraphQL resolvers need. It mirrors
// handlers.ServerDeps, since the GraphQL surface serves the same entities
// under the same authorization rules (spec.md §6: "mutations require the
// same permissions" as the REST routes).
type Deps struct {
	Receivers domain.EventReceiverRepository
	Events    domain.EventRepository
	Groups    domain.EventReceiverGroupRepository

	ReceiverHandler *ingest.ReceiverHandler
	EventHandler    *ingest.EventHandler
	GroupHandler    *ingest.GroupHandler

	Pipeline *authz.Pipeline
}

type resolver struct {
	deps Deps
}

// principalFromCtx builds the authz.Principal from the context values the
// JWT authentication middleware populated before the request ever reaches
// this resolver (spec.md §6: "authenticated user is threaded into the
// resolver context").
func principalFromCtx(ctx context.Context) authz.Principal {
	return authz.Principal{
		UserID:      domain.UserID(middleware.GetUserID(ctx)),
		Roles:       middleware.GetRoles(ctx),
		Permissions: middleware.GetPermissions(ctx),
	}
}

func (rv *resolver) authorize(ctx context.Context, action authz.Action, resourceType, resourceID string) error {
	principal := principalFromCtx(ctx)
	if principal.UserID == "" {
		return fmt.Errorf("not authenticated")
	}

	decision, err := rv.deps.Pipeline.Authorize(ctx, principal, action, resourceType, resourceID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !decision.Allow {
		return fmt.Errorf("permission denied: %s", decision.Reason)
	}
	return nil
}

// --- Receiver resolvers ---

func (rv *resolver) receiver(p graphql.ResolveParams) (any, error) {
	id := argString(p, "id")
	if err := rv.authorize(p.Context, authz.ActionRead, "receiver", id); err != nil {
		return nil, err
	}
	receiverID, err := domain.ParseEventReceiverID(id)
	if err != nil {
		return nil, wrapResolveErr("receiver", err)
	}
	r, err := rv.deps.Receivers.FindByID(p.Context, receiverID)
	if err != nil {
		return nil, wrapResolveErr("receiver", err)
	}
	return receiverToMap(r), nil
}

func (rv *resolver) receivers(p graphql.ResolveParams) (any, error) {
	if err := rv.authorize(p.Context, authz.ActionRead, "receiver", ""); err != nil {
		return nil, err
	}
	limit := argInt(p, "limit", domain.DefaultPageLimit)
	offset := argInt(p, "offset", 0)
	list, err := rv.deps.Receivers.List(p.Context, limit, offset)
	if err != nil {
		return nil, wrapResolveErr("receivers", err)
	}
	out := make([]map[string]any, len(list))
	for i, r := range list {
		out[i] = receiverToMap(r)
	}
	return out, nil
}

func (rv *resolver) createReceiver(p graphql.ResolveParams) (any, error) {
	if err := rv.authorize(p.Context, authz.ActionCreate, "receiver", ""); err != nil {
		return nil, err
	}
	id, err := rv.deps.ReceiverHandler.CreateReceiver(p.Context, ingest.CreateReceiverParams{
		Name:         argString(p, "name"),
		Type:         argString(p, "type"),
		Version:      argString(p, "version"),
		Description:  argString(p, "description"),
		Schema:       p.Args["schema"],
		CallerUserID: principalFromCtx(p.Context).UserID,
	})
	if err != nil {
		return nil, wrapResolveErr("createReceiver", err)
	}
	r, err := rv.deps.Receivers.FindByID(p.Context, id)
	if err != nil {
		return nil, wrapResolveErr("createReceiver", err)
	}
	return receiverToMap(r), nil
}

func (rv *resolver) updateReceiver(p graphql.ResolveParams) (any, error) {
	id := argString(p, "id")
	if err := rv.authorize(p.Context, authz.ActionUpdate, "receiver", id); err != nil {
		return nil, err
	}
	receiverID, err := domain.ParseEventReceiverID(id)
	if err != nil {
		return nil, wrapResolveErr("updateReceiver", err)
	}
	existing, err := rv.deps.Receivers.FindByID(p.Context, receiverID)
	if err != nil {
		return nil, wrapResolveErr("updateReceiver", err)
	}

	expectedVersion := argInt64(p, "resourceVersion")
	updated := *existing
	updated.Name, updated.Type, updated.Version = argString(p, "name"), argString(p, "type"), argString(p, "version")
	updated.Description, updated.Schema = argString(p, "description"), p.Args["schema"]

	fp, err := domain.ComputeFingerprint(updated.Name, updated.Type, updated.Version, updated.Schema)
	if err != nil {
		return nil, wrapResolveErr("updateReceiver", err)
	}
	updated.Fingerprint = fp

	if err := rv.deps.Receivers.Update(p.Context, &updated, expectedVersion); err != nil {
		return nil, wrapResolveErr("updateReceiver", err)
	}
	return receiverToMap(&updated), nil
}

func (rv *resolver) deleteReceiver(p graphql.ResolveParams) (any, error) {
	id := argString(p, "id")
	if err := rv.authorize(p.Context, authz.ActionDelete, "receiver", id); err != nil {
		return nil, err
	}
	receiverID, err := domain.ParseEventReceiverID(id)
	if err != nil {
		return nil, wrapResolveErr("deleteReceiver", err)
	}
	if err := rv.deps.Receivers.Delete(p.Context, receiverID); err != nil {
		return nil, wrapResolveErr("deleteReceiver", err)
	}
	return true, nil
}

// --- Event resolvers ---

func (rv *resolver) event(p graphql.ResolveParams) (any, error) {
	id := argString(p, "id")
	if err := rv.authorize(p.Context, authz.ActionRead, "event", id); err != nil {
		return nil, err
	}
	eventID, err := domain.ParseEventID(id)
	if err != nil {
		return nil, wrapResolveErr("event", err)
	}
	e, err := rv.deps.Events.FindByID(p.Context, eventID)
	if err != nil {
		return nil, wrapResolveErr("event", err)
	}
	return eventToMap(e), nil
}

func (rv *resolver) events(p graphql.ResolveParams) (any, error) {
	if err := rv.authorize(p.Context, authz.ActionRead, "event", ""); err != nil {
		return nil, err
	}
	limit := argInt(p, "limit", domain.DefaultPageLimit)
	offset := argInt(p, "offset", 0)

	if receiverID := argString(p, "receiverId"); receiverID != "" {
		rid, err := domain.ParseEventReceiverID(receiverID)
		if err != nil {
			return nil, wrapResolveErr("events", err)
		}
		list, err := rv.deps.Events.FindByReceiverID(p.Context, rid, limit, offset)
		if err != nil {
			return nil, wrapResolveErr("events", err)
		}
		return eventsToMaps(list), nil
	}

	list, err := rv.deps.Events.FindByOwner(p.Context, principalFromCtx(p.Context).UserID, limit, offset)
	if err != nil {
		return nil, wrapResolveErr("events", err)
	}
	return eventsToMaps(list), nil
}

func eventsToMaps(list []*domain.Event) []map[string]any {
	out := make([]map[string]any, len(list))
	for i, e := range list {
		out[i] = eventToMap(e)
	}
	return out
}

func (rv *resolver) createEvent(p graphql.ResolveParams) (any, error) {
	if err := rv.authorize(p.Context, authz.ActionCreate, "event", ""); err != nil {
		return nil, err
	}
	id, err := rv.deps.EventHandler.CreateEvent(p.Context, ingest.CreateEventParams{
		Name:            argString(p, "name"),
		Version:         argString(p, "version"),
		Release:         argString(p, "release"),
		PlatformID:      argString(p, "platformId"),
		Package:         argString(p, "package"),
		Description:     argString(p, "description"),
		Payload:         p.Args["payload"],
		Success:         argBool(p, "success"),
		EventReceiverID: argString(p, "eventReceiverId"),
		CallerUserID:    principalFromCtx(p.Context).UserID,
	})
	if err != nil {
		return nil, wrapResolveErr("createEvent", err)
	}
	e, err := rv.deps.Events.FindByID(p.Context, id)
	if err != nil {
		return nil, wrapResolveErr("createEvent", err)
	}
	return eventToMap(e), nil
}

// --- Group resolvers ---

func (rv *resolver) group(p graphql.ResolveParams) (any, error) {
	id := argString(p, "id")
	if err := rv.authorize(p.Context, authz.ActionRead, "group", id); err != nil {
		return nil, err
	}
	groupID, err := domain.ParseEventReceiverGroupID(id)
	if err != nil {
		return nil, wrapResolveErr("group", err)
	}
	g, err := rv.deps.Groups.FindByID(p.Context, groupID)
	if err != nil {
		return nil, wrapResolveErr("group", err)
	}
	return groupToMap(g), nil
}

func (rv *resolver) groups(p graphql.ResolveParams) (any, error) {
	if err := rv.authorize(p.Context, authz.ActionRead, "group", ""); err != nil {
		return nil, err
	}
	limit := argInt(p, "limit", domain.DefaultPageLimit)
	offset := argInt(p, "offset", 0)
	list, err := rv.deps.Groups.List(p.Context, limit, offset)
	if err != nil {
		return nil, wrapResolveErr("groups", err)
	}
	out := make([]map[string]any, len(list))
	for i, g := range list {
		out[i] = groupToMap(g)
	}
	return out, nil
}

func (rv *resolver) createGroup(p graphql.ResolveParams) (any, error) {
	if err := rv.authorize(p.Context, authz.ActionCreate, "group", ""); err != nil {
		return nil, err
	}
	rawIDs := argStringSlice(p, "eventReceiverIds")
	receiverIDs := make([]domain.EventReceiverID, len(rawIDs))
	for i, raw := range rawIDs {
		rid, err := domain.ParseEventReceiverID(raw)
		if err != nil {
			return nil, wrapResolveErr("createGroup", err)
		}
		receiverIDs[i] = rid
	}

	id, err := rv.deps.GroupHandler.CreateGroup(p.Context, ingest.CreateGroupParams{
		Name:             argString(p, "name"),
		Type:             argString(p, "type"),
		Version:          argString(p, "version"),
		Description:      argString(p, "description"),
		Enabled:          argBool(p, "enabled"),
		EventReceiverIDs: receiverIDs,
		CallerUserID:     principalFromCtx(p.Context).UserID,
	})
	if err != nil {
		return nil, wrapResolveErr("createGroup", err)
	}
	g, err := rv.deps.Groups.FindByID(p.Context, id)
	if err != nil {
		return nil, wrapResolveErr("createGroup", err)
	}
	return groupToMap(g), nil
}

func (rv *resolver) addMember(p graphql.ResolveParams) (any, error) {
	groupIDRaw := argString(p, "groupId")
	if err := rv.authorize(p.Context, authz.ActionUpdate, "group", groupIDRaw); err != nil {
		return nil, err
	}
	groupID, err := domain.ParseEventReceiverGroupID(groupIDRaw)
	if err != nil {
		return nil, wrapResolveErr("addMember", err)
	}
	userID, err := domain.ParseUserID(argString(p, "userId"))
	if err != nil {
		return nil, wrapResolveErr("addMember", err)
	}
	membership, err := domain.NewGroupMembership(groupID, userID, principalFromCtx(p.Context).UserID, time.Now())
	if err != nil {
		return nil, wrapResolveErr("addMember", err)
	}
	if err := rv.deps.Groups.AddMember(p.Context, membership); err != nil {
		return nil, wrapResolveErr("addMember", err)
	}
	return membershipToMap(membership), nil
}

func (rv *resolver) removeMember(p graphql.ResolveParams) (any, error) {
	groupIDRaw := argString(p, "groupId")
	if err := rv.authorize(p.Context, authz.ActionUpdate, "group", groupIDRaw); err != nil {
		return nil, err
	}
	groupID, err := domain.ParseEventReceiverGroupID(groupIDRaw)
	if err != nil {
		return nil, wrapResolveErr("removeMember", err)
	}
	userID, err := domain.ParseUserID(argString(p, "userId"))
	if err != nil {
		return nil, wrapResolveErr("removeMember", err)
	}
	if err := rv.deps.Groups.RemoveMember(p.Context, groupID, userID); err != nil {
		return nil, wrapResolveErr("removeMember", err)
	}
	return true, nil
}
