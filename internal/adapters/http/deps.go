package http

import (
	"github.com/nats-io/nats.go"

	"github.com/anderlopz/parkpass/internal/adapters/location"
	"github.com/anderlopz/parkpass/internal/adapters/valkey"
	"github.com/anderlopz/parkpass/internal/core/ports"
	"github.com/anderlopz/parkpass/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Markers     *usecases.MarkerService
	Expander    *usecases.SearchExpander
	Coordinator *usecases.ReservationCoordinator
	Tracker     *usecases.LocationTracker
	Location    *location.PushSource
	Publisher   ports.EventPublisher
	Journal     ports.TripJournal
	NATS        *nats.Conn
	Cache       *valkey.Cache
}
