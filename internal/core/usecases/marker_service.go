package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
	"github.com/anderlopz/parkpass/internal/pkg/metrics"
)

// MarkerService fetches nearby markers from the backend and owns the current
// marker snapshot. Each Search is a fresh fetch; the caller controls cadence.
type MarkerService struct {
	api   ports.ParkingAPI
	cache ports.CacheService

	mu       sync.Mutex
	snapshot atomic.Pointer[domain.MarkerSnapshot]
	version  uint64
}

// NewMarkerService creates a new MarkerService. cache may be nil.
func NewMarkerService(api ports.ParkingAPI, cache ports.CacheService) *MarkerService {
	return &MarkerService{api: api, cache: cache}
}

// Search issues the two backend queries (lots and scan markers) within
// radiusKm of center, merges them keyed by (kind, id), and publishes a new
// snapshot. An empty result is not an error. On failure the previous snapshot
// is left unchanged.
func (s *MarkerService) Search(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
	cacheKey := fmt.Sprintf("markers:search:%.4f:%.4f:%.1f", center.Lat, center.Lon, radiusKm)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var markers []domain.Marker
			if err := json.Unmarshal(data, &markers); err == nil {
				metrics.CacheHits.WithLabelValues("marker_search").Inc()
				s.publish(center, radiusKm, markers)
				return markers, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("marker_search").Inc()
	}

	lots, err := s.api.SearchLots(ctx, center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("%w: lots: %v", domain.ErrMarkerFetch, err)
	}
	scans, err := s.api.SearchScanMarkers(ctx, center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("%w: scan markers: %v", domain.ErrMarkerFetch, err)
	}

	merged := make(map[domain.MarkerKey]domain.Marker, len(lots)+len(scans))
	for _, m := range lots {
		m.Kind = domain.KindParkingLot
		merged[m.Key()] = m
	}
	for _, m := range scans {
		m.Kind = domain.KindScanMarker
		merged[m.Key()] = m
	}

	markers := make([]domain.Marker, 0, len(merged))
	for _, m := range merged {
		markers = append(markers, m)
	}

	s.publish(center, radiusKm, markers)

	// Short TTL: marker availability is volatile.
	if s.cache != nil {
		if data, err := json.Marshal(markers); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 30)
		}
	}

	metrics.MarkerSearches.Inc()
	return markers, nil
}

// Snapshot returns the current immutable marker snapshot, nil before the
// first successful search.
func (s *MarkerService) Snapshot() *domain.MarkerSnapshot {
	return s.snapshot.Load()
}

// AddPublicMarker registers a new public scan marker with the backend (e.g.
// the user parked in a public space) and folds it into the snapshot.
func (s *MarkerService) AddPublicMarker(ctx context.Context, at domain.GeoPoint, name string) (*domain.Marker, error) {
	m, err := s.api.AddMarker(ctx, at, name)
	if err != nil {
		return nil, fmt.Errorf("%w: add marker: %v", domain.ErrMarkerFetch, err)
	}
	if s.Snapshot() != nil {
		s.UpdateMarker(*m)
	}
	return m, nil
}

// UpdateMarker replaces one marker in the snapshot by publishing a copy with a
// bumped version. Used by the coordinator for local reservation-flag updates.
func (s *MarkerService) UpdateMarker(m domain.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot.Load()
	if snap == nil {
		return
	}
	next := snap.WithMarker(m)
	s.version = next.Version
	s.snapshot.Store(next)
}

func (s *MarkerService) publish(center domain.GeoPoint, radiusKm float64, markers []domain.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	snap := &domain.MarkerSnapshot{
		Version:   s.version,
		Center:    center,
		RadiusKm:  radiusKm,
		Markers:   make(map[domain.MarkerKey]domain.Marker, len(markers)),
		FetchedAt: time.Now(),
	}
	for _, m := range markers {
		snap.Markers[m.Key()] = m
	}
	s.snapshot.Store(snap)
}
