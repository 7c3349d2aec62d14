package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/pkg/metrics"
)

// SearchExpander widens the search radius step by step when nothing is found
// at the default radius. Linear widening, not exponential: radius for step i
// is baseRadiusKm * i.
type SearchExpander struct {
	markers      *MarkerService
	baseRadiusKm float64
	maxSteps     int
	stepDelay    time.Duration
}

// NewSearchExpander creates an expander with the given policy constants.
func NewSearchExpander(markers *MarkerService, baseRadiusKm float64, maxSteps int, stepDelay time.Duration) *SearchExpander {
	return &SearchExpander{
		markers:      markers,
		baseRadiusKm: baseRadiusKm,
		maxSteps:     maxSteps,
		stepDelay:    stepDelay,
	}
}

// Expand searches at growing radii until a step returns markers or all steps
// are exhausted (domain.ErrNoSpotsFound). onRegion is called before each step
// with the new radius so the map surface can zoom out to match; the fixed
// delay after it paces backend load and gives the zoom animation time to
// finish. Cancelling ctx aborts the loop, including mid-delay.
func (e *SearchExpander) Expand(ctx context.Context, center domain.GeoPoint, onRegion func(radiusKm float64)) ([]domain.Marker, error) {
	for step := 1; step <= e.maxSteps; step++ {
		radius := e.baseRadiusKm * float64(step)

		if onRegion != nil {
			onRegion(radius)
		}

		select {
		case <-time.After(e.stepDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		markers, err := e.markers.Search(ctx, center, radius)
		if err != nil {
			return nil, err
		}
		if len(markers) > 0 {
			slog.Debug("search expansion found markers", "step", step, "radius_km", radius, "count", len(markers))
			metrics.ExpansionSteps.Observe(float64(step))
			return markers, nil
		}
	}

	metrics.ExpansionSteps.Observe(float64(e.maxSteps))
	return nil, domain.ErrNoSpotsFound
}
