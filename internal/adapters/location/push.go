package location

import (
	"context"
	"sync"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
)

// PushSource implements ports.LocationSource and ports.HeadingSource for
// platforms that push fixes into the agent (the UI shell posts GPS updates
// over the control API). Watch installs the callbacks; Push delivers to them.
type PushSource struct {
	mu        sync.Mutex
	onFix     func(domain.GeoPoint, *float64)
	onError   func(error)
	onHeading func(float64)
	done      <-chan struct{}
}

// NewPushSource creates an empty source; nothing is delivered until Watch.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Watch installs the fix and error callbacks. Implements ports.LocationSource.
func (s *PushSource) Watch(ctx context.Context, onFix func(domain.GeoPoint, *float64), onError func(error)) error {
	s.mu.Lock()
	s.onFix = onFix
	s.onError = onError
	s.done = ctx.Done()
	s.mu.Unlock()
	return nil
}

// Heading returns a ports.HeadingSource view of the push source.
func (s *PushSource) Heading() ports.HeadingSource {
	return headingView{s}
}

type headingView struct {
	s *PushSource
}

func (v headingView) Watch(_ context.Context, onHeading func(float64)) error {
	v.s.mu.Lock()
	v.s.onHeading = onHeading
	v.s.mu.Unlock()
	return nil
}

// Push delivers one GPS fix.
func (s *PushSource) Push(p domain.GeoPoint, altitude *float64) {
	s.mu.Lock()
	onFix, done := s.onFix, s.done
	s.mu.Unlock()
	if onFix == nil || closed(done) {
		return
	}
	onFix(p, altitude)
}

// PushError reports a platform location failure (permission lost, GPS off).
func (s *PushSource) PushError(err error) {
	s.mu.Lock()
	onError, done := s.onError, s.done
	s.mu.Unlock()
	if onError == nil || closed(done) {
		return
	}
	onError(err)
}

// PushHeading delivers one compass reading in degrees.
func (s *PushSource) PushHeading(deg float64) {
	s.mu.Lock()
	onHeading := s.onHeading
	s.mu.Unlock()
	if onHeading != nil {
		onHeading(deg)
	}
}

func closed(done <-chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
