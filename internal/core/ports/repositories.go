package ports

import (
	"context"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// ParkingAPI is the backend REST boundary. The coordinator is the only caller
// of Reserve/CancelReservation; the trip monitor is the only caller of
// MarkerStatus/ClosestAvailable/ReportArrival.
type ParkingAPI interface {
	// SearchLots returns parking-lot aggregates within radiusKm of center.
	SearchLots(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error)

	// SearchScanMarkers returns individually reservable spots within radiusKm.
	SearchScanMarkers(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error)

	// Reserve claims a scan marker exclusively for this session.
	Reserve(ctx context.Context, markerID int64) error

	// CancelReservation releases a previously reserved scan marker.
	CancelReservation(ctx context.Context, markerID int64) error

	// MarkerStatus returns the live occupancy/reservation flags for a marker.
	MarkerStatus(ctx context.Context, markerID int64) (isOccupied, isReserved bool, err error)

	// ClosestAvailable returns the nearest free scan marker, or nil if none.
	ClosestAvailable(ctx context.Context, near domain.GeoPoint) (*domain.Marker, error)

	// ReportArrival tells the backend the user reached a lot and returns the
	// assigned spot.
	ReportArrival(ctx context.Context, streetAddress string) (*domain.SpotAssignment, error)

	// AddMarker creates a public scan marker, e.g. when the user confirms
	// parking in a public space away from any known spot.
	AddMarker(ctx context.Context, at domain.GeoPoint, name string) (*domain.Marker, error)
}

// TripJournal persists local trip and event history on the device.
type TripJournal interface {
	RecordSession(ctx context.Context, s *domain.ReservationSession) error
	RecordEvent(ctx context.Context, ev *domain.SessionEvent) error
	ListSessions(ctx context.Context, limit int) ([]domain.ReservationSession, error)
	ListEvents(ctx context.Context, sessionID string) ([]domain.SessionEvent, error)
}
