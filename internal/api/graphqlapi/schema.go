package graphqlapi

import "github.com/graphql-go/graphql"

// NewSchema builds the programmatic GraphQL schema. Query and Mutation
// fields mirror the REST routes in spec.md §6 one-for-one: same entities,
// same pagination contract, same authorization pipeline underneath.
func NewSchema(deps Deps) (graphql.Schema, error) {
	rv := &resolver{deps: deps}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"receiver": &graphql.Field{
				Type: receiverType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.receiver,
			},
			"receivers": &graphql.Field{
				Type: graphql.NewList(receiverType),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: rv.receivers,
			},
			"event": &graphql.Field{
				Type: eventType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.event,
			},
			"events": &graphql.Field{
				Type: graphql.NewList(eventType),
				Args: graphql.FieldConfigArgument{
					"receiverId": &graphql.ArgumentConfig{Type: graphql.ID},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: rv.events,
			},
			"group": &graphql.Field{
				Type: groupType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.group,
			},
			"groups": &graphql.Field{
				Type: graphql.NewList(groupType),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: rv.groups,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createReceiver": &graphql.Field{
				Type: receiverType,
				Args: graphql.FieldConfigArgument{
					"name":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"version":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"schema":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(jsonScalar)},
				},
				Resolve: rv.createReceiver,
			},
			"updateReceiver": &graphql.Field{
				Type: receiverType,
				Args: graphql.FieldConfigArgument{
					"id":              &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"name":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"version":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description":     &graphql.ArgumentConfig{Type: graphql.String},
					"schema":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(jsonScalar)},
					"resourceVersion": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: rv.updateReceiver,
			},
			"deleteReceiver": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.deleteReceiver,
			},
			"createEvent": &graphql.Field{
				Type: eventType,
				Args: graphql.FieldConfigArgument{
					"name":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"version":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"release":         &graphql.ArgumentConfig{Type: graphql.String},
					"platformId":      &graphql.ArgumentConfig{Type: graphql.String},
					"package":         &graphql.ArgumentConfig{Type: graphql.String},
					"description":     &graphql.ArgumentConfig{Type: graphql.String},
					"payload":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(jsonScalar)},
					"success":         &graphql.ArgumentConfig{Type: graphql.Boolean},
					"eventReceiverId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.createEvent,
			},
			"createGroup": &graphql.Field{
				Type: groupType,
				Args: graphql.FieldConfigArgument{
					"name":             &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":             &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"version":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description":      &graphql.ArgumentConfig{Type: graphql.String},
					"enabled":          &graphql.ArgumentConfig{Type: graphql.Boolean},
					"eventReceiverIds": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))},
				},
				Resolve: rv.createGroup,
			},
			"addMember": &graphql.Field{
				Type: membershipType,
				Args: graphql.FieldConfigArgument{
					"groupId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"userId":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.addMember,
			},
			"removeMember": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"groupId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"userId":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: rv.removeMember,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
