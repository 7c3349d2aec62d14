package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/usecases"
)

func TestRouteEstimator_BothLegs(t *testing.T) {
	dir := &mockDirections{
		routeFn: func(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error) {
			line := domain.GeoLineString{Coordinates: []domain.GeoPoint{from, to}}
			if mode == usecases.ModeDriving {
				return line, 420, nil
			}
			return line, 180, nil
		},
	}

	est, err := usecases.NewRouteEstimator(dir, nil).Estimate(context.Background(),
		domain.GeoPoint{Lat: 48.10, Lon: 11.50},
		domain.GeoPoint{Lat: 48.14, Lon: 11.56},
		domain.GeoPoint{Lat: 48.15, Lon: 11.57},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !est.DrivingOK || !est.WalkingOK {
		t.Fatalf("expected both legs computed: %+v", est)
	}
	// The headline ETA is the driving duration, the walk is display-only.
	if est.ETASeconds != 420 {
		t.Errorf("expected ETA 420s, got %.0f", est.ETASeconds)
	}
}

func TestRouteEstimator_WalkingLegFailurePartial(t *testing.T) {
	dir := &mockDirections{
		routeFn: func(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error) {
			if mode == usecases.ModeWalking {
				return domain.GeoLineString{}, 0, errors.New("no pedestrian path")
			}
			return domain.GeoLineString{Coordinates: []domain.GeoPoint{from, to}}, 300, nil
		},
	}

	est, err := usecases.NewRouteEstimator(dir, nil).Estimate(context.Background(),
		domain.GeoPoint{}, domain.GeoPoint{}, domain.GeoPoint{})
	if !errors.Is(err, domain.ErrRouteQuery) {
		t.Fatalf("expected wrapped ErrRouteQuery, got %v", err)
	}
	if est == nil {
		t.Fatal("a one-leg failure must still return the partial estimate")
	}
	if !est.DrivingOK || est.WalkingOK {
		t.Errorf("expected driving-only estimate: %+v", est)
	}
	if est.ETASeconds != 300 {
		t.Errorf("expected ETA 300s, got %.0f", est.ETASeconds)
	}
}

func TestRouteEstimator_BothLegsFail(t *testing.T) {
	dir := &mockDirections{
		routeFn: func(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error) {
			return domain.GeoLineString{}, 0, errors.New("router down")
		},
	}

	est, err := usecases.NewRouteEstimator(dir, nil).Estimate(context.Background(),
		domain.GeoPoint{}, domain.GeoPoint{}, domain.GeoPoint{})
	if !errors.Is(err, domain.ErrRouteQuery) {
		t.Fatalf("expected ErrRouteQuery, got %v", err)
	}
	if est != nil {
		t.Errorf("expected no estimate when both legs fail, got %+v", est)
	}
}
