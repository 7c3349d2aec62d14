package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
	"github.com/anderlopz/parkpass/internal/pkg/metrics"
)

// Travel modes understood by the directions capability.
const (
	ModeDriving = "auto"
	ModeWalking = "pedestrian"
)

// RouteEstimator computes drive-to-marker plus walk-to-destination routes.
type RouteEstimator struct {
	directions ports.DirectionsProvider
	cache      ports.CacheService
}

// NewRouteEstimator creates an estimator. cache may be nil.
func NewRouteEstimator(directions ports.DirectionsProvider, cache ports.CacheService) *RouteEstimator {
	return &RouteEstimator{directions: directions, cache: cache}
}

// Estimate issues two independent directions queries: driving origin→marker
// and walking marker→destination. Either leg may fail without discarding the
// other; the returned error wraps domain.ErrRouteQuery when any leg failed.
// The headline ETA is the driving duration only and is zero when the driving
// leg failed.
func (e *RouteEstimator) Estimate(ctx context.Context, origin, marker, destination domain.GeoPoint) (*domain.RouteEstimate, error) {
	cacheKey := fmt.Sprintf("route:%.5f:%.5f:%.5f:%.5f:%.5f:%.5f",
		origin.Lat, origin.Lon, marker.Lat, marker.Lon, destination.Lat, destination.Lon)
	if e.cache != nil {
		if data, err := e.cache.Get(ctx, cacheKey); err == nil {
			var est domain.RouteEstimate
			if err := json.Unmarshal(data, &est); err == nil {
				metrics.CacheHits.WithLabelValues("route").Inc()
				return &est, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
	}

	est := &domain.RouteEstimate{}
	var drivingErr, walkingErr error

	driving, duration, err := e.directions.Route(ctx, origin, marker, ModeDriving)
	if err != nil {
		drivingErr = err
	} else {
		est.DrivingPolyline = driving
		est.ETASeconds = duration
		est.DrivingOK = true
	}

	walking, _, err := e.directions.Route(ctx, marker, destination, ModeWalking)
	if err != nil {
		walkingErr = err
	} else {
		est.WalkingPolyline = walking
		est.WalkingOK = true
	}

	if drivingErr != nil && walkingErr != nil {
		return nil, fmt.Errorf("%w: driving: %v; walking: %v", domain.ErrRouteQuery, drivingErr, walkingErr)
	}
	if drivingErr != nil {
		return est, fmt.Errorf("%w: driving leg: %v", domain.ErrRouteQuery, drivingErr)
	}
	if walkingErr != nil {
		return est, fmt.Errorf("%w: walking leg: %v", domain.ErrRouteQuery, walkingErr)
	}

	if e.cache != nil {
		if data, err := json.Marshal(est); err == nil {
			_ = e.cache.Set(ctx, cacheKey, data, 60)
		}
	}
	return est, nil
}
