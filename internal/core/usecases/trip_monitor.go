package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
	"github.com/anderlopz/parkpass/internal/pkg/geospatial"
	"github.com/anderlopz/parkpass/internal/pkg/metrics"
)

// TripCallbacks are the monitor's decisions, delivered to the coordinator.
type TripCallbacks struct {
	OnReassignment func(domain.Marker)
	OnNoSpots      func()
	OnArrival      func(domain.SpotAssignment)
	OnDeviation    func(distanceM float64)
	OnDegraded     func(error)
}

// deviationThresholdM is how far the device may stray from the displayed route
// before the UI is told to offer a recompute.
const deviationThresholdM = 50.0

// TripMonitor polls spot occupancy (scan trips) or destination proximity (lot
// trips) while a trip is Confirmed.
//
// Polls are strictly serialized: a tick is skipped while a previous poll is
// still in flight, so reassignment decisions never compound on stale data.
// Every poll is tagged with the generation current at Start; Stop bumps the
// generation, so continuations of polls that outlive Stop are discarded.
type TripMonitor struct {
	api     ports.ParkingAPI
	tracker *LocationTracker

	interval          time.Duration
	arrivalThresholdM float64
	failureThreshold  int

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	inFlight bool
	failures int
}

// NewTripMonitor creates a monitor with the given policy constants.
func NewTripMonitor(api ports.ParkingAPI, tracker *LocationTracker, interval time.Duration, arrivalThresholdM float64, failureThreshold int) *TripMonitor {
	return &TripMonitor{
		api:               api,
		tracker:           tracker,
		interval:          interval,
		arrivalThresholdM: arrivalThresholdM,
		failureThreshold:  failureThreshold,
	}
}

// Start begins polling for the given session. A previous run, if any, is
// stopped first.
func (m *TripMonitor) Start(session *domain.ReservationSession, cb TripCallbacks) {
	m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.cancel = cancel
	m.failures = 0
	m.mu.Unlock()

	sess := *session
	go m.loop(ctx, gen, sess, cb)
}

// Stop halts polling. No poll result arriving after Stop mutates state.
func (m *TripMonitor) Stop() {
	m.mu.Lock()
	m.gen++
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *TripMonitor) loop(ctx context.Context, gen uint64, sess domain.ReservationSession, cb TripCallbacks) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// The session marker can change via reassignment; track it locally.
	marker := sess.Marker
	route := routeLine(sess.Route)
	deviated := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		if m.inFlight || gen != m.gen {
			m.mu.Unlock()
			continue
		}
		m.inFlight = true
		m.mu.Unlock()

		deviated = m.checkDeviation(route, deviated, cb)

		var (
			next *domain.Marker
			done bool
		)
		switch marker.Kind {
		case domain.KindScanMarker:
			next = m.pollScan(ctx, gen, marker, cb)
		case domain.KindParkingLot:
			done = m.pollLot(ctx, gen, marker, sess.Destination, cb)
		}

		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()

		if next != nil {
			marker = *next
		}
		if done {
			return
		}
	}
}

// checkDeviation compares the current fix against the displayed route and
// fires OnDeviation once per off-route episode. Returns the new episode state.
func (m *TripMonitor) checkDeviation(route [][2]float64, deviated bool, cb TripCallbacks) bool {
	if len(route) == 0 {
		return deviated
	}
	pos := m.tracker.Current()
	if pos == nil {
		return deviated
	}

	d := geospatial.DistanceToPolyline(pos.Lat, pos.Lon, route)
	if d <= deviationThresholdM {
		return false
	}
	if !deviated {
		slog.Info("device off the displayed route", "distance_m", d)
		if cb.OnDeviation != nil {
			cb.OnDeviation(d)
		}
	}
	return true
}

// routeLine flattens the session route into one drive-then-walk polyline.
func routeLine(r *domain.RouteEstimate) [][2]float64 {
	if r == nil {
		return nil
	}
	var line [][2]float64
	if r.DrivingOK {
		for _, p := range r.DrivingPolyline.Coordinates {
			line = append(line, [2]float64{p.Lat, p.Lon})
		}
	}
	if r.WalkingOK {
		for _, p := range r.WalkingPolyline.Coordinates {
			line = append(line, [2]float64{p.Lat, p.Lon})
		}
	}
	return line
}

// pollScan checks the reserved spot's live status and arranges a fallback
// when it was physically taken. Returns the replacement marker, if any.
func (m *TripMonitor) pollScan(ctx context.Context, gen uint64, marker domain.Marker, cb TripCallbacks) *domain.Marker {
	occupied, _, err := m.api.MarkerStatus(ctx, marker.ID)
	if !m.alive(gen) {
		return nil
	}
	if err != nil {
		m.recordFailure(err, cb)
		return nil
	}
	m.clearFailures()
	metrics.TripPolls.WithLabelValues("status").Inc()

	if !occupied {
		return nil
	}

	// Someone took the spot despite the reservation. Look for the closest
	// free marker from the spot's last known position.
	fallback, err := m.api.ClosestAvailable(ctx, marker.Location)
	if !m.alive(gen) {
		return nil
	}
	if err != nil {
		m.recordFailure(err, cb)
		return nil
	}
	if fallback == nil {
		slog.Info("reserved spot occupied, no fallback nearby", "marker", marker.Key().String())
		if cb.OnNoSpots != nil {
			cb.OnNoSpots()
		}
		return nil
	}

	fallback.Kind = domain.KindScanMarker
	slog.Info("reserved spot occupied, reassigning",
		"old", marker.Key().String(), "new", fallback.Key().String())
	if cb.OnReassignment != nil {
		cb.OnReassignment(*fallback)
	}
	return fallback
}

// pollLot watches device proximity to the destination and reports arrival
// exactly once. Returns true when polling should stop.
func (m *TripMonitor) pollLot(ctx context.Context, gen uint64, marker domain.Marker, dest domain.GeoPoint, cb TripCallbacks) bool {
	pos := m.tracker.Current()
	if pos == nil {
		return false
	}
	metrics.TripPolls.WithLabelValues("proximity").Inc()

	dist := geospatial.Haversine(pos.Lat, pos.Lon, dest.Lat, dest.Lon)
	if dist > m.arrivalThresholdM {
		return false
	}

	assignment, err := m.api.ReportArrival(ctx, marker.StreetAddress)
	if !m.alive(gen) {
		return true
	}
	if err != nil {
		// Retried on the next tick, not immediately.
		slog.Warn("arrival report failed, will retry", "error", err)
		m.recordFailure(domain.ErrArrivalReport, cb)
		return false
	}
	m.clearFailures()

	if cb.OnArrival != nil && assignment != nil {
		cb.OnArrival(*assignment)
	}
	return true
}

// alive reports whether this poll's generation is still current.
func (m *TripMonitor) alive(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

// recordFailure swallows a transient poll error and surfaces a degraded
// notice only after failureThreshold consecutive failures.
func (m *TripMonitor) recordFailure(err error, cb TripCallbacks) {
	metrics.TripPollErrors.Inc()
	m.mu.Lock()
	m.failures++
	degraded := m.failures == m.failureThreshold
	m.mu.Unlock()

	slog.Debug("trip poll failed", "error", err)
	if degraded && cb.OnDegraded != nil {
		cb.OnDegraded(err)
	}
}

func (m *TripMonitor) clearFailures() {
	m.mu.Lock()
	m.failures = 0
	m.mu.Unlock()
}
