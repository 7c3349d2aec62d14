package ports

import (
	"context"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// LocationSource abstracts the host geolocation capability.
type LocationSource interface {
	// Watch delivers position fixes until ctx is cancelled. Errors from the
	// capability (denied permission, timeout) are delivered through onError.
	Watch(ctx context.Context, onFix func(domain.GeoPoint, *float64), onError func(error)) error
}

// HeadingSource abstracts the compass capability. Optional: the tracker
// degrades to no-heading when it is absent or failing.
type HeadingSource interface {
	Watch(ctx context.Context, onHeading func(degrees float64)) error
}

// DirectionsProvider issues routing queries against a directions capability.
type DirectionsProvider interface {
	// Route returns the polyline and duration for one leg in the given travel
	// mode ("auto" or "pedestrian").
	Route(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error)
}

// EventPublisher publishes session events to a message broker so the map UI
// (and anything else) can subscribe to state-machine transitions.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error
}

// CacheService provides read-through caching. Implementations may be absent;
// callers must tolerate a nil cache.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TokenProvider hands out the bearer token for backend calls. The secure
// storage behind it is out of scope.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}
