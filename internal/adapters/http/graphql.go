package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// buildSchema creates the GraphQL read model over the agent's live state.
// Mutations go through the REST transitions; GraphQL is query-only.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"kind":              &graphql.Field{Type: graphql.String},
			"id":                &graphql.Field{Type: graphql.Int},
			"location":          &graphql.Field{Type: geoPointType},
			"hourly_price":      &graphql.Field{Type: graphql.Float},
			"current_occupancy": &graphql.Field{Type: graphql.Int},
			"capacity":          &graphql.Field{Type: graphql.Int},
			"street_address":    &graphql.Field{Type: graphql.String},
			"name":              &graphql.Field{Type: graphql.String},
			"is_reserved":       &graphql.Field{Type: graphql.Boolean},
			"is_occupied":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	assignmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SpotAssignment",
		Fields: graphql.Fields{
			"level":  &graphql.Field{Type: graphql.String},
			"sector": &graphql.Field{Type: graphql.String},
			"number": &graphql.Field{Type: graphql.Int},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"marker":      &graphql.Field{Type: markerType},
			"destination": &graphql.Field{Type: geoPointType},
			"assignment":  &graphql.Field{Type: assignmentType},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Position",
		Fields: graphql.Fields{
			"lat":     &graphql.Field{Type: graphql.Float},
			"lon":     &graphql.Field{Type: graphql.Float},
			"seq":     &graphql.Field{Type: graphql.Int},
			"heading": &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Markers in the current snapshot, optionally filtered by kind",
				Args: graphql.FieldConfigArgument{
					"kind":       &graphql.ArgumentConfig{Type: graphql.String},
					"selectable": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					snap := deps.Markers.Snapshot()
					markers := snap.List()

					kind, _ := p.Args["kind"].(string)
					onlySelectable, _ := p.Args["selectable"].(bool)

					var out []domain.Marker
					for _, m := range markers {
						if kind != "" && string(m.Kind) != kind {
							continue
						}
						if onlySelectable && !m.Selectable() {
							continue
						}
						out = append(out, m)
					}
					return out, nil
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "The active reservation session, null when idle",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s := deps.Coordinator.Session()
					if s == nil {
						return nil, nil
					}
					return s, nil
				},
			},
			"position": &graphql.Field{
				Type:        positionType,
				Description: "The latest device position, null before the first fix",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pos := deps.Tracker.Current()
					if pos == nil {
						return nil, nil
					}
					m := map[string]interface{}{
						"lat": pos.Lat,
						"lon": pos.Lon,
						"seq": int(pos.Seq),
					}
					if h := deps.Tracker.Heading(); h != nil {
						m["heading"] = *h
					}
					return m, nil
				},
			},
			"trips": &graphql.Field{
				Type:        graphql.NewList(sessionType),
				Description: "Journaled trip history, newest first",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Journal == nil {
						return nil, nil
					}
					limit := p.Args["limit"].(int)
					return deps.Journal.ListSessions(p.Context, limit)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
