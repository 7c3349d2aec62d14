package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/usecases"
)

func TestMarkerService_Search_MergesBothKinds(t *testing.T) {
	api := &mockParkingAPI{
		searchLotsFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			return []domain.Marker{
				{ID: 7, Location: domain.GeoPoint{Lat: 48.137, Lon: 11.575}, Capacity: 120, CurrentOccupancy: 40},
			}, nil
		},
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			return []domain.Marker{
				{ID: 7, Location: domain.GeoPoint{Lat: 48.138, Lon: 11.576}, Name: "Leopoldstr. 12"},
				{ID: 9, Location: domain.GeoPoint{Lat: 48.139, Lon: 11.577}, Name: "Leopoldstr. 20"},
			}, nil
		},
	}

	svc := usecases.NewMarkerService(api, nil)
	markers, err := svc.Search(context.Background(), domain.GeoPoint{Lat: 48.137, Lon: 11.575}, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Lot 7 and scan 7 share an ID but are distinct markers.
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}

	snap := svc.Snapshot()
	if snap == nil {
		t.Fatal("expected a snapshot after search")
	}
	if _, ok := snap.Get(domain.MarkerKey{Kind: domain.KindParkingLot, ID: 7}); !ok {
		t.Error("lot 7 missing from snapshot")
	}
	if _, ok := snap.Get(domain.MarkerKey{Kind: domain.KindScanMarker, ID: 7}); !ok {
		t.Error("scan 7 missing from snapshot")
	}
}

func TestMarkerService_Search_EmptyIsNotAnError(t *testing.T) {
	svc := usecases.NewMarkerService(&mockParkingAPI{}, nil)
	markers, err := svc.Search(context.Background(), domain.GeoPoint{Lat: 48.1, Lon: 11.5}, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markers) != 0 {
		t.Fatalf("expected no markers, got %d", len(markers))
	}
	if svc.Snapshot() == nil {
		t.Error("an empty result should still publish a snapshot")
	}
}

func TestMarkerService_Search_FailureKeepsPreviousSnapshot(t *testing.T) {
	failing := false
	api := &mockParkingAPI{
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			if failing {
				return nil, errors.New("backend down")
			}
			return []domain.Marker{{ID: 1, Name: "spot"}}, nil
		},
	}

	svc := usecases.NewMarkerService(api, nil)
	if _, err := svc.Search(context.Background(), domain.GeoPoint{}, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v1 := svc.Snapshot().Version

	failing = true
	_, err := svc.Search(context.Background(), domain.GeoPoint{}, 2.0)
	if !errors.Is(err, domain.ErrMarkerFetch) {
		t.Fatalf("expected ErrMarkerFetch, got %v", err)
	}

	snap := svc.Snapshot()
	if snap.Version != v1 {
		t.Errorf("failed search must not publish: version %d != %d", snap.Version, v1)
	}
	if _, ok := snap.Get(domain.MarkerKey{Kind: domain.KindScanMarker, ID: 1}); !ok {
		t.Error("previous snapshot content lost after failed search")
	}
}

func TestMarkerService_UpdateMarker_PublishesNewVersion(t *testing.T) {
	api := &mockParkingAPI{
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			return []domain.Marker{{ID: 5, Name: "spot"}}, nil
		},
	}

	svc := usecases.NewMarkerService(api, nil)
	if _, err := svc.Search(context.Background(), domain.GeoPoint{}, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := svc.Snapshot()

	updated := domain.Marker{Kind: domain.KindScanMarker, ID: 5, Name: "spot", IsReserved: true}
	svc.UpdateMarker(updated)

	after := svc.Snapshot()
	if after.Version <= before.Version {
		t.Errorf("expected version bump, got %d -> %d", before.Version, after.Version)
	}
	if m, _ := after.Get(updated.Key()); !m.IsReserved {
		t.Error("updated marker not reserved in new snapshot")
	}
	// The old snapshot is immutable; readers holding it see the old flags.
	if m, _ := before.Get(updated.Key()); m.IsReserved {
		t.Error("old snapshot was mutated")
	}
}

func TestMarkerService_AddPublicMarker(t *testing.T) {
	api := &mockParkingAPI{
		searchScanMarkersFn: func(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
			return nil, nil
		},
		addMarkerFn: func(ctx context.Context, at domain.GeoPoint, name string) (*domain.Marker, error) {
			return &domain.Marker{Kind: domain.KindScanMarker, ID: 99, Location: at, Name: name}, nil
		},
	}

	svc := usecases.NewMarkerService(api, nil)
	if _, err := svc.Search(context.Background(), domain.GeoPoint{}, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := svc.AddPublicMarker(context.Background(), domain.GeoPoint{Lat: 48.2, Lon: 11.6}, "public space")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != 99 {
		t.Fatalf("expected marker 99, got %d", m.ID)
	}
	if _, ok := svc.Snapshot().Get(m.Key()); !ok {
		t.Error("new public marker missing from snapshot")
	}
}
