package graphqlapi

import (
	"github.com/graphql-go/graphql"

	"github.com/xbcsmith/xzepr/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

var receiverType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Receiver",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"type":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"version":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description":     &graphql.Field{Type: graphql.String},
		"schema":          &graphql.Field{Type: graphql.NewNonNull(jsonScalar)},
		"ownerId":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"resourceVersion": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var eventType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Event",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"version":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"release":         &graphql.Field{Type: graphql.String},
		"platformId":      &graphql.Field{Type: graphql.String},
		"package":         &graphql.Field{Type: graphql.String},
		"description":     &graphql.Field{Type: graphql.String},
		"payload":         &graphql.Field{Type: graphql.NewNonNull(jsonScalar)},
		"success":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"eventReceiverId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"ownerId":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"resourceVersion": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var membershipType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Membership",
	Fields: graphql.Fields{
		"groupId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"userId":  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"addedBy": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"addedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var groupType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Group",
	Fields: graphql.Fields{
		"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":             &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"type":             &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"version":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description":      &graphql.Field{Type: graphql.String},
		"enabled":          &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"eventReceiverIds": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID)))},
		"ownerId":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"resourceVersion":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"updatedAt":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

func receiverToMap(r *domain.EventReceiver) map[string]any {
	return map[string]any{
		"id": string(r.ID), "name": r.Name, "type": r.Type, "version": r.Version,
		"description": r.Description, "schema": r.Schema, "ownerId": string(r.OwnerID),
		"resourceVersion": r.ResourceVersion, "createdAt": r.CreatedAt.Format(timeLayout),
	}
}

func eventToMap(e *domain.Event) map[string]any {
	return map[string]any{
		"id": string(e.ID), "name": e.Name, "version": e.Version, "release": e.Release,
		"platformId": e.PlatformID, "package": e.Package, "description": e.Description,
		"payload": e.Payload, "success": e.Success, "eventReceiverId": string(e.EventReceiverID),
		"ownerId": string(e.OwnerID), "resourceVersion": e.ResourceVersion,
		"createdAt": e.CreatedAt.Format(timeLayout),
	}
}

func groupToMap(g *domain.EventReceiverGroup) map[string]any {
	ids := make([]string, len(g.EventReceiverIDs))
	for i, id := range g.EventReceiverIDs {
		ids[i] = string(id)
	}
	return map[string]any{
		"id": string(g.ID), "name": g.Name, "type": g.Type, "version": g.Version,
		"description": g.Description, "enabled": g.Enabled, "eventReceiverIds": ids,
		"ownerId": string(g.OwnerID), "resourceVersion": g.ResourceVersion,
		"createdAt": g.CreatedAt.Format(timeLayout), "updatedAt": g.UpdatedAt.Format(timeLayout),
	}
}

func membershipToMap(m *domain.GroupMembership) map[string]any {
	return map[string]any{
		"groupId": string(m.GroupID), "userId": string(m.UserID), "addedBy": string(m.AddedBy),
		"addedAt": m.AddedAt.Format(timeLayout),
	}
}
