package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
	"github.com/anderlopz/parkpass/internal/pkg/geospatial"
	"github.com/anderlopz/parkpass/internal/pkg/metrics"
)

// CancelRetryEnqueuer schedules an out-of-band retry of a failed
// cancel-reservation call, e.g. on a durable workflow queue. May be nil.
type CancelRetryEnqueuer interface {
	EnqueueCancelRetry(ctx context.Context, sessionID string, markerID int64) error
}

// ReservationCoordinator owns the reservation state machine:
//
//	Idle → Selecting → RouteDisplayed → Reserved (scan only) → Confirmed → Released
//
// It is the only component permitted to call reserve/cancel backend endpoints.
// Transitions are atomic: at most one is in flight, concurrent calls are
// rejected with domain.ErrTransitionInFlight rather than interleaved.
type ReservationCoordinator struct {
	api       ports.ParkingAPI
	markers   *MarkerService
	routes    *RouteEstimator
	tracker   *LocationTracker
	monitor   *TripMonitor
	publisher ports.EventPublisher
	journal   ports.TripJournal
	cleanup   CancelRetryEnqueuer

	arrivalThresholdM float64

	mu      sync.Mutex
	busy    bool
	session *domain.ReservationSession
}

// NewReservationCoordinator wires the coordinator. publisher, journal, and
// cleanup may be nil.
func NewReservationCoordinator(
	api ports.ParkingAPI,
	markers *MarkerService,
	routes *RouteEstimator,
	tracker *LocationTracker,
	monitor *TripMonitor,
	publisher ports.EventPublisher,
	journal ports.TripJournal,
	cleanup CancelRetryEnqueuer,
	arrivalThresholdM float64,
) *ReservationCoordinator {
	return &ReservationCoordinator{
		api:               api,
		markers:           markers,
		routes:            routes,
		tracker:           tracker,
		monitor:           monitor,
		publisher:         publisher,
		journal:           journal,
		cleanup:           cleanup,
		arrivalThresholdM: arrivalThresholdM,
	}
}

// Session returns a copy of the active session, or nil when Idle.
func (c *ReservationCoordinator) Session() *domain.ReservationSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SelectMarker picks a marker from the current snapshot. Purely local, no
// backend call. Rejected while a trip is Confirmed; the caller must Release
// first.
func (c *ReservationCoordinator) SelectMarker(ctx context.Context, key domain.MarkerKey) error {
	snap := c.markers.Snapshot()
	marker, ok := snap.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s not in snapshot", domain.ErrNotSelectable, key)
	}
	if !marker.Selectable() {
		return fmt.Errorf("%w: %s", domain.ErrNotSelectable, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return domain.ErrTransitionInFlight
	}
	if c.session != nil && c.session.Status == domain.StatusConfirmed {
		return domain.ErrTripActive
	}

	from := domain.StatusIdle
	if c.session != nil {
		from = c.session.Status
	}
	c.session = &domain.ReservationSession{
		ID:        uuid.NewString(),
		Status:    domain.StatusSelecting,
		Marker:    marker,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventTransition, From: from, To: domain.StatusSelecting, Marker: &marker,
	})
	return nil
}

// RequestRoute computes the drive-then-walk route from the device position via
// the selected marker to the destination and moves to RouteDisplayed. Marker
// reservation state is untouched.
func (c *ReservationCoordinator) RequestRoute(ctx context.Context, destination domain.GeoPoint) error {
	origin := c.tracker.Current()
	if origin == nil {
		return domain.ErrLocationUnavailable
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return domain.ErrTransitionInFlight
	}
	if c.session == nil || (c.session.Status != domain.StatusSelecting && c.session.Status != domain.StatusRouteDisplayed) {
		c.mu.Unlock()
		return fmt.Errorf("%w: route requires a selected marker", domain.ErrInvalidTransition)
	}
	c.busy = true
	marker := c.session.Marker
	from := c.session.Status
	c.mu.Unlock()

	estimate, err := c.routes.Estimate(ctx, origin.GeoPoint, marker.Location, destination)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if estimate == nil {
		return err
	}
	c.session.Destination = destination
	c.session.Route = estimate
	c.session.Status = domain.StatusRouteDisplayed
	c.session.UpdatedAt = time.Now()
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventTransition, SessionID: c.session.ID,
		From: from, To: domain.StatusRouteDisplayed, Marker: &marker,
	})
	// A partial estimate (one leg failed) is surfaced but not fatal.
	return err
}

// Confirm starts the trip. For a scan marker the backend reserve call must
// succeed first; on failure the session stays in RouteDisplayed and the
// marker's local flags are unchanged. Parking lots have no reserve step.
// Entering Confirmed starts the trip monitor.
func (c *ReservationCoordinator) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return domain.ErrTransitionInFlight
	}
	if c.session == nil || c.session.Status != domain.StatusRouteDisplayed {
		c.mu.Unlock()
		return fmt.Errorf("%w: confirm requires a displayed route", domain.ErrInvalidTransition)
	}
	c.busy = true
	sess := *c.session
	c.mu.Unlock()

	if sess.Marker.Kind == domain.KindScanMarker {
		if err := c.api.Reserve(ctx, sess.Marker.ID); err != nil {
			c.mu.Lock()
			c.busy = false
			c.mu.Unlock()
			metrics.Reservations.WithLabelValues("conflict").Inc()
			return fmt.Errorf("%w: %v", domain.ErrReservationConflict, err)
		}

		c.mu.Lock()
		c.session.Marker.IsReserved = true
		c.session.Status = domain.StatusReserved
		c.session.UpdatedAt = time.Now()
		reserved := c.session.Marker
		c.emitLocked(ctx, domain.SessionEvent{
			Type: domain.EventTransition, SessionID: c.session.ID,
			From: domain.StatusRouteDisplayed, To: domain.StatusReserved, Marker: &reserved,
		})
		c.mu.Unlock()

		c.markers.UpdateMarker(reserved)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	from := c.session.Status
	c.session.Status = domain.StatusConfirmed
	c.session.UpdatedAt = time.Now()
	confirmed := *c.session
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventTransition, SessionID: c.session.ID,
		From: from, To: domain.StatusConfirmed, Marker: &confirmed.Marker,
	})
	metrics.Reservations.WithLabelValues("confirmed").Inc()

	if c.monitor != nil {
		c.monitor.Start(&confirmed, TripCallbacks{
			OnReassignment: func(m domain.Marker) { c.applyReassignment(context.Background(), m) },
			OnNoSpots:      func() { c.emitNotice(context.Background(), domain.EventNoSpotsNearby, domain.ErrNoSpotsNearby) },
			OnArrival:      func(a domain.SpotAssignment) { c.applyArrival(context.Background(), a) },
			OnDeviation:    func(distanceM float64) { c.emitDeviation(context.Background(), distanceM) },
			OnDegraded:     func(err error) { c.emitNotice(context.Background(), domain.EventMonitorDegraded, err) },
		})
	}
	return nil
}

// Release ends the trip. Scan-marker cancellation is best-effort: a backend
// failure is surfaced and queued for out-of-band retry but never blocks the
// local transition; the user has already left.
//
// When the device is farther than the arrival threshold from the destination
// and force is false, Release returns domain.ErrParkedOutsideDestination
// without transitioning; the caller confirms the public-space parking and
// retries with force.
func (c *ReservationCoordinator) Release(ctx context.Context, force bool) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return domain.ErrTransitionInFlight
	}
	if c.session == nil || c.session.Status != domain.StatusConfirmed {
		c.mu.Unlock()
		return fmt.Errorf("%w: release requires a confirmed trip", domain.ErrInvalidTransition)
	}
	sess := *c.session

	if !force {
		if pos := c.tracker.Current(); pos != nil {
			dist := geospatial.Haversine(pos.Lat, pos.Lon, sess.Destination.Lat, sess.Destination.Lon)
			if dist > c.arrivalThresholdM {
				c.mu.Unlock()
				return domain.ErrParkedOutsideDestination
			}
		}
	}
	c.busy = true
	c.mu.Unlock()

	if c.monitor != nil {
		c.monitor.Stop()
	}

	var cancelErr error
	if sess.Marker.Kind == domain.KindScanMarker {
		if err := c.api.CancelReservation(ctx, sess.Marker.ID); err != nil {
			cancelErr = fmt.Errorf("%w: %v", domain.ErrReservationCancelFailed, err)
			slog.Error("cancel reservation failed, releasing locally anyway",
				"session", sess.ID, "marker", sess.Marker.Key().String(), "error", err)
			if c.cleanup != nil {
				if err := c.cleanup.EnqueueCancelRetry(ctx, sess.ID, sess.Marker.ID); err != nil {
					slog.Error("enqueue cancel retry failed", "session", sess.ID, "error", err)
				}
			}
		}
	}

	// Forced release away from the destination drops a public marker at the
	// parked position so others can discover the spot. Best-effort.
	if force {
		if pos := c.tracker.Current(); pos != nil {
			if _, err := c.api.AddMarker(ctx, pos.GeoPoint, "public space"); err != nil {
				slog.Warn("add public marker failed", "error", err)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.session.Status = domain.StatusReleased
	c.session.UpdatedAt = time.Now()
	released := c.session.Marker
	released.IsReserved = false
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventTransition, SessionID: c.session.ID,
		From: domain.StatusConfirmed, To: domain.StatusReleased, Marker: &released,
	})
	if cancelErr != nil {
		c.emitLocked(ctx, domain.SessionEvent{
			Type: domain.EventCancelFailed, SessionID: c.session.ID, Error: cancelErr.Error(),
		})
	}
	metrics.Reservations.WithLabelValues("released").Inc()
	if c.journal != nil {
		s := *c.session
		_ = c.journal.RecordSession(ctx, &s)
	}
	c.markers.UpdateMarker(released)
	c.session = nil
	return cancelErr
}

// applyReassignment swaps the session marker after the monitor detected the
// reserved spot was physically taken.
func (c *ReservationCoordinator) applyReassignment(ctx context.Context, next domain.Marker) {
	// Hold the reservation on the replacement before exposing it.
	if next.Kind == domain.KindScanMarker {
		if err := c.api.Reserve(ctx, next.ID); err != nil {
			slog.Warn("reserve on reassignment failed", "marker", next.Key().String(), "error", err)
		} else {
			next.IsReserved = true
		}
	}

	c.mu.Lock()
	if c.session == nil || c.session.Status != domain.StatusConfirmed {
		c.mu.Unlock()
		return
	}
	old := c.session.Marker
	c.session.Marker = next
	c.session.Route = nil // stale: recomputed on the next route request
	c.session.UpdatedAt = time.Now()
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventReassignment, SessionID: c.session.ID,
		Marker: &next, OldMarker: &old,
	})
	c.mu.Unlock()

	c.markers.UpdateMarker(next)
	metrics.Reassignments.Inc()
}

// applyArrival records the assigned spot once the lot arrival endpoint fired.
func (c *ReservationCoordinator) applyArrival(ctx context.Context, a domain.SpotAssignment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	c.session.Assignment = &a
	c.session.UpdatedAt = time.Now()
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventArrival, SessionID: c.session.ID, Assignment: &a,
	})
	metrics.Arrivals.Inc()
}

// emitDeviation tells the UI the device left the displayed route. The route
// itself stays; recomputing is the user's call.
func (c *ReservationCoordinator) emitDeviation(ctx context.Context, distanceM float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := ""
	if c.session != nil {
		id = c.session.ID
	}
	c.emitLocked(ctx, domain.SessionEvent{
		Type: domain.EventRouteDeviation, SessionID: id, DistanceM: distanceM,
	})
}

func (c *ReservationCoordinator) emitNotice(ctx context.Context, typ domain.SessionEventType, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := ""
	if c.session != nil {
		id = c.session.ID
	}
	c.emitLocked(ctx, domain.SessionEvent{Type: typ, SessionID: id, Error: err.Error()})
}

// emitLocked publishes and journals an event. Caller holds c.mu.
func (c *ReservationCoordinator) emitLocked(ctx context.Context, ev domain.SessionEvent) {
	ev.Time = time.Now()
	if c.publisher != nil {
		if err := c.publisher.PublishSessionEvent(ctx, &ev); err != nil {
			slog.Warn("publish session event failed", "type", string(ev.Type), "error", err)
		}
	}
	if c.journal != nil {
		_ = c.journal.RecordEvent(ctx, &ev)
	}
}
