package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
)

// LocationTracker owns the device's current position and heading. It is the
// single source of truth other components read from.
type LocationTracker struct {
	source  ports.LocationSource
	heading ports.HeadingSource // optional

	mu         sync.RWMutex
	current    *domain.Position
	headingDeg *float64
	seq        uint64
	subs       []func(domain.Position)
	errSubs    []func(error)

	cancel context.CancelFunc
}

// NewLocationTracker creates a tracker. heading may be nil; dependent rotation
// displays are then suppressed.
func NewLocationTracker(source ports.LocationSource, heading ports.HeadingSource) *LocationTracker {
	return &LocationTracker{source: source, heading: heading}
}

// Start begins watching the location and heading sources. It returns once the
// watches are installed; fixes arrive asynchronously.
func (t *LocationTracker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	err := t.source.Watch(ctx, t.onFix, t.onError)
	if err != nil {
		cancel()
		return err
	}

	if t.heading != nil {
		// Heading is best-effort: a failing compass must not take the tracker
		// down with it.
		if err := t.heading.Watch(ctx, t.onHeading); err != nil {
			slog.Warn("heading source unavailable, rotation display suppressed", "error", err)
		}
	}
	return nil
}

// Stop cancels the underlying watches.
func (t *LocationTracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Current returns the latest position, or nil before the first fix or after a
// location failure. Callers must handle nil.
func (t *LocationTracker) Current() *domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Heading returns the latest compass heading in degrees, or nil when the
// compass is absent or has not reported.
func (t *LocationTracker) Heading() *float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.headingDeg
}

// Subscribe registers a callback for new positions. Deliveries are already
// de-duplicated against staleness: a fix older than the current one is dropped.
func (t *LocationTracker) Subscribe(fn func(domain.Position)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, fn)
}

// SubscribeErrors registers a callback for location failures.
func (t *LocationTracker) SubscribeErrors(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errSubs = append(t.errSubs, fn)
}

func (t *LocationTracker) onFix(p domain.GeoPoint, altitude *float64) {
	t.mu.Lock()
	t.seq++
	pos := domain.Position{GeoPoint: p, Altitude: altitude, Seq: t.seq}
	t.current = &pos
	subs := make([]func(domain.Position), len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, fn := range subs {
		fn(pos)
	}
}

func (t *LocationTracker) onError(err error) {
	t.mu.Lock()
	t.current = nil
	errSubs := make([]func(error), len(t.errSubs))
	copy(errSubs, t.errSubs)
	t.mu.Unlock()

	slog.Warn("location unavailable", "error", err)
	for _, fn := range errSubs {
		fn(domain.ErrLocationUnavailable)
	}
}

func (t *LocationTracker) onHeading(deg float64) {
	t.mu.Lock()
	d := deg
	t.headingDeg = &d
	t.mu.Unlock()
}

// Accept reports whether a position with the given sequence number is still
// fresh. Consumers holding a fix can use this to drop late deliveries.
func (t *LocationTracker) Accept(seq uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current != nil && seq >= t.current.Seq
}
