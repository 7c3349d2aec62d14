package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/usecases"
)

func TestSearchExpander_WidensUntilFound(t *testing.T) {
	var mu sync.Mutex
	var searched []float64
	api := &mockParkingAPI{
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			mu.Lock()
			searched = append(searched, radiusKm)
			mu.Unlock()
			if radiusKm >= 3.0 {
				return []domain.Marker{{ID: 1, Name: "spot"}}, nil
			}
			return nil, nil
		},
	}

	markers := usecases.NewMarkerService(api, nil)
	exp := usecases.NewSearchExpander(markers, 1.0, 5, time.Millisecond)

	var regions []float64
	found, err := exp.Expand(context.Background(), domain.GeoPoint{Lat: 48.1, Lon: 11.5}, func(radiusKm float64) {
		regions = append(regions, radiusKm)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(found))
	}

	// Linear widening: 1, 2, 3 km, then stop.
	want := []float64{1.0, 2.0, 3.0}
	mu.Lock()
	defer mu.Unlock()
	if len(searched) != len(want) {
		t.Fatalf("expected %d search steps, got %d (%v)", len(want), len(searched), searched)
	}
	for i, r := range want {
		if searched[i] != r {
			t.Errorf("step %d: expected radius %.1f, got %.1f", i+1, r, searched[i])
		}
	}
	// The region announcement precedes each search step.
	if len(regions) != len(want) {
		t.Errorf("expected %d region announcements, got %d", len(want), len(regions))
	}
}

func TestSearchExpander_ExhaustedReturnsNoSpots(t *testing.T) {
	steps := 0
	api := &mockParkingAPI{
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			steps++
			return nil, nil
		},
	}

	markers := usecases.NewMarkerService(api, nil)
	exp := usecases.NewSearchExpander(markers, 1.0, 5, time.Millisecond)

	_, err := exp.Expand(context.Background(), domain.GeoPoint{}, nil)
	if !errors.Is(err, domain.ErrNoSpotsFound) {
		t.Fatalf("expected ErrNoSpotsFound, got %v", err)
	}
	if steps != 5 {
		t.Errorf("expected 5 steps before giving up, got %d", steps)
	}
}

func TestSearchExpander_BackendErrorAborts(t *testing.T) {
	api := &mockParkingAPI{
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			return nil, errors.New("backend down")
		},
	}

	markers := usecases.NewMarkerService(api, nil)
	exp := usecases.NewSearchExpander(markers, 1.0, 5, time.Millisecond)

	_, err := exp.Expand(context.Background(), domain.GeoPoint{}, nil)
	if !errors.Is(err, domain.ErrMarkerFetch) {
		t.Fatalf("expected ErrMarkerFetch, got %v", err)
	}
}

func TestSearchExpander_CancelDuringDelay(t *testing.T) {
	api := &mockParkingAPI{}
	markers := usecases.NewMarkerService(api, nil)
	exp := usecases.NewSearchExpander(markers, 1.0, 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := exp.Expand(ctx, domain.GeoPoint{}, nil)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expand did not abort on cancel")
	}
}
