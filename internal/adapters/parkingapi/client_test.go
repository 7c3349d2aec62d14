package parkingapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anderlopz/parkpass/internal/adapters/parkingapi"
	"github.com/anderlopz/parkpass/internal/core/domain"
)

func newClient(t *testing.T, handler http.HandlerFunc) *parkingapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return parkingapi.New(srv.URL, 2*time.Second, parkingapi.StaticToken("test-token"))
}

func TestClient_SearchLots(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parking/radius-search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if r.URL.Query().Get("distance") != "2" {
			t.Errorf("expected distance=2, got %s", r.URL.Query().Get("distance"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 7, "lat": 48.137, "lon": 11.575, "hourly_price": 2.5,
			 "current_occupancy": 40, "capacity": 120, "street_address": "Garagenstr. 1"}
		]`))
	})

	lots, err := c.SearchLots(context.Background(), domain.GeoPoint{Lat: 48.137, Lon: 11.575}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lots) != 1 {
		t.Fatalf("expected 1 lot, got %d", len(lots))
	}
	lot := lots[0]
	if lot.Kind != domain.KindParkingLot || lot.ID != 7 {
		t.Errorf("unexpected marker: %+v", lot)
	}
	if lot.Capacity != 120 || lot.StreetAddress != "Garagenstr. 1" {
		t.Errorf("lot fields not mapped: %+v", lot)
	}
}

func TestClient_SearchScanMarkers_MapsLng(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/marker/scan" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 9, "lat": 48.139, "lng": 11.577, "name": "Leopoldstr. 20", "is_reserved": true}]`))
	})

	scans, err := c.SearchScanMarkers(context.Background(), domain.GeoPoint{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(scans))
	}
	m := scans[0]
	if m.Kind != domain.KindScanMarker || m.Location.Lon != 11.577 || !m.IsReserved {
		t.Errorf("scan fields not mapped: %+v", m)
	}
}

func TestClient_Reserve_ConflictBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/marker/reserve/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "marker already reserved"}`))
	})

	err := c.Reserve(context.Background(), 42)
	if err == nil {
		t.Fatal("expected an error for an {error} body")
	}
}

func TestClient_CancelReservation_OK(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/marker/cancel-reservation/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	if err := c.CancelReservation(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_MarkerStatus(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/marker/status/5" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_occupied": true, "is_reserved": false}`))
	})

	occupied, reserved, err := c.MarkerStatus(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !occupied || reserved {
		t.Errorf("flags not mapped: occupied=%v reserved=%v", occupied, reserved)
	}
}

func TestClient_ClosestAvailable_NullMeansNone(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	})

	m, err := c.ClosestAvailable(context.Background(), domain.GeoPoint{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil marker, got %+v", m)
	}
}

func TestClient_ReportArrival(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/parking/available-spot" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"level": "P2", "sector": "B", "number": 41}`))
	})

	a, err := c.ReportArrival(context.Background(), "Garagenstr. 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Level != "P2" || a.Number != 41 {
		t.Errorf("assignment not mapped: %+v", a)
	}
}

func TestClient_ErrorStatusIncludesBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	})

	_, err := c.SearchLots(context.Background(), domain.GeoPoint{}, 1)
	if err == nil {
		t.Fatal("expected an error for HTTP 500")
	}
}
