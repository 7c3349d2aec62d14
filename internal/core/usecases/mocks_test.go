package usecases_test

import (
	"context"
	"sync"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// --- Mock ParkingAPI ---

type mockParkingAPI struct {
	searchLotsFn        func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error)
	searchScanMarkersFn func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error)
	reserveFn           func(ctx context.Context, markerID int64) error
	cancelFn            func(ctx context.Context, markerID int64) error
	markerStatusFn      func(ctx context.Context, markerID int64) (bool, bool, error)
	closestAvailableFn  func(ctx context.Context, near domain.GeoPoint) (*domain.Marker, error)
	reportArrivalFn     func(ctx context.Context, streetAddress string) (*domain.SpotAssignment, error)
	addMarkerFn         func(ctx context.Context, at domain.GeoPoint, name string) (*domain.Marker, error)
}

func (m *mockParkingAPI) SearchLots(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
	if m.searchLotsFn != nil {
		return m.searchLotsFn(ctx, center, radiusKm)
	}
	return nil, nil
}

func (m *mockParkingAPI) SearchScanMarkers(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
	if m.searchScanMarkersFn != nil {
		return m.searchScanMarkersFn(ctx, center, radiusKm)
	}
	return nil, nil
}

func (m *mockParkingAPI) Reserve(ctx context.Context, markerID int64) error {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, markerID)
	}
	return nil
}

func (m *mockParkingAPI) CancelReservation(ctx context.Context, markerID int64) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, markerID)
	}
	return nil
}

func (m *mockParkingAPI) MarkerStatus(ctx context.Context, markerID int64) (bool, bool, error) {
	if m.markerStatusFn != nil {
		return m.markerStatusFn(ctx, markerID)
	}
	return false, false, nil
}

func (m *mockParkingAPI) ClosestAvailable(ctx context.Context, near domain.GeoPoint) (*domain.Marker, error) {
	if m.closestAvailableFn != nil {
		return m.closestAvailableFn(ctx, near)
	}
	return nil, nil
}

func (m *mockParkingAPI) ReportArrival(ctx context.Context, streetAddress string) (*domain.SpotAssignment, error) {
	if m.reportArrivalFn != nil {
		return m.reportArrivalFn(ctx, streetAddress)
	}
	return nil, nil
}

func (m *mockParkingAPI) AddMarker(ctx context.Context, at domain.GeoPoint, name string) (*domain.Marker, error) {
	if m.addMarkerFn != nil {
		return m.addMarkerFn(ctx, at, name)
	}
	return nil, nil
}

// --- Mock LocationSource / HeadingSource ---

type mockLocationSource struct {
	mu      sync.Mutex
	onFix   func(domain.GeoPoint, *float64)
	onError func(error)
}

func (m *mockLocationSource) Watch(ctx context.Context, onFix func(domain.GeoPoint, *float64), onError func(error)) error {
	m.mu.Lock()
	m.onFix = onFix
	m.onError = onError
	m.mu.Unlock()
	return nil
}

func (m *mockLocationSource) fix(lat, lon float64) {
	m.mu.Lock()
	fn := m.onFix
	m.mu.Unlock()
	if fn != nil {
		fn(domain.GeoPoint{Lat: lat, Lon: lon}, nil)
	}
}

func (m *mockLocationSource) fail(err error) {
	m.mu.Lock()
	fn := m.onError
	m.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

type mockHeadingSource struct {
	mu        sync.Mutex
	onHeading func(float64)
}

func (m *mockHeadingSource) Watch(ctx context.Context, onHeading func(float64)) error {
	m.mu.Lock()
	m.onHeading = onHeading
	m.mu.Unlock()
	return nil
}

func (m *mockHeadingSource) turn(deg float64) {
	m.mu.Lock()
	fn := m.onHeading
	m.mu.Unlock()
	if fn != nil {
		fn(deg)
	}
}

// --- Mock DirectionsProvider ---

type mockDirections struct {
	routeFn func(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error)
}

func (m *mockDirections) Route(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, from, to, mode)
	}
	return domain.GeoLineString{}, 0, nil
}

// --- Mock EventPublisher (records everything) ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (m *mockPublisher) PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *mockPublisher) byType(t domain.SessionEventType) []domain.SessionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SessionEvent
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// --- Mock TripJournal ---

type mockJournal struct {
	mu       sync.Mutex
	sessions []domain.ReservationSession
	events   []domain.SessionEvent
}

func (m *mockJournal) RecordSession(ctx context.Context, s *domain.ReservationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *mockJournal) RecordEvent(ctx context.Context, ev *domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *mockJournal) ListSessions(ctx context.Context, limit int) ([]domain.ReservationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReservationSession, len(m.sessions))
	copy(out, m.sessions)
	return out, nil
}

func (m *mockJournal) ListEvents(ctx context.Context, sessionID string) ([]domain.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SessionEvent
	for _, ev := range m.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// --- Mock CancelRetryEnqueuer ---

type mockEnqueuer struct {
	mu    sync.Mutex
	calls []int64
}

func (m *mockEnqueuer) EnqueueCancelRetry(ctx context.Context, sessionID string, markerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, markerID)
	return nil
}
