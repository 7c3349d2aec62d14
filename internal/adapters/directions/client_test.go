package directions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anderlopz/parkpass/internal/adapters/directions"
	"github.com/anderlopz/parkpass/internal/core/domain"
)

func TestClient_Route(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/route" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Locations []struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"locations"`
			Costing string `json:"costing"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Costing != "pedestrian" {
			t.Errorf("expected costing pedestrian, got %s", req.Costing)
		}
		if len(req.Locations) != 2 {
			t.Fatalf("expected 2 locations, got %d", len(req.Locations))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"trip": {
				"legs": [
					{"shape": [{"lat": 48.10, "lon": 11.50}, {"lat": 48.12, "lon": 11.53}], "summary": {"time": 100}},
					{"shape": [{"lat": 48.12, "lon": 11.53}, {"lat": 48.14, "lon": 11.56}], "summary": {"time": 80}}
				],
				"summary": {"time": 180}
			}
		}`))
	}))
	defer srv.Close()

	c := directions.New(srv.URL, 2*time.Second)
	line, seconds, err := c.Route(context.Background(),
		domain.GeoPoint{Lat: 48.10, Lon: 11.50},
		domain.GeoPoint{Lat: 48.14, Lon: 11.56},
		"pedestrian",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seconds != 180 {
		t.Errorf("expected 180s, got %.0f", seconds)
	}
	// Leg shapes are concatenated in order.
	if len(line.Coordinates) != 4 {
		t.Fatalf("expected 4 points, got %d", len(line.Coordinates))
	}
	if line.Coordinates[3].Lat != 48.14 {
		t.Errorf("unexpected final point: %+v", line.Coordinates[3])
	}
}

func TestClient_Route_NoLegs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"trip": {"legs": [], "summary": {"time": 0}}}`))
	}))
	defer srv.Close()

	c := directions.New(srv.URL, 2*time.Second)
	_, _, err := c.Route(context.Background(), domain.GeoPoint{}, domain.GeoPoint{}, "auto")
	if err == nil {
		t.Fatal("expected an error for a route without legs")
	}
}

func TestClient_Route_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := directions.New(srv.URL, 2*time.Second)
	_, _, err := c.Route(context.Background(), domain.GeoPoint{}, domain.GeoPoint{}, "auto")
	if err == nil {
		t.Fatal("expected an error for HTTP 502")
	}
}
