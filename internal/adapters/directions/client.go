package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// Client implements ports.DirectionsProvider against a Valhalla-style routing
// service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a directions client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type routeRequest struct {
	Locations []location `json:"locations"`
	Costing   string     `json:"costing"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type routeResponse struct {
	Trip struct {
		Legs []struct {
			Shape   []location `json:"shape"`
			Summary struct {
				Time float64 `json:"time"`
			} `json:"summary"`
		} `json:"legs"`
		Summary struct {
			Time float64 `json:"time"`
		} `json:"summary"`
	} `json:"trip"`
}

// Route returns the polyline and duration in seconds for one leg in the given
// travel mode ("auto" or "pedestrian").
func (c *Client) Route(ctx context.Context, from, to domain.GeoPoint, mode string) (domain.GeoLineString, float64, error) {
	reqBody := routeRequest{
		Locations: []location{
			{Lat: from.Lat, Lon: from.Lon},
			{Lat: to.Lat, Lon: to.Lon},
		},
		Costing: mode,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return domain.GeoLineString{}, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/route", bytes.NewReader(body))
	if err != nil {
		return domain.GeoLineString{}, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeoLineString{}, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoLineString{}, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return domain.GeoLineString{}, 0, fmt.Errorf("decode response: %w", err)
	}

	if len(route.Trip.Legs) == 0 {
		return domain.GeoLineString{}, 0, fmt.Errorf("no route found")
	}

	var line domain.GeoLineString
	for _, leg := range route.Trip.Legs {
		for _, p := range leg.Shape {
			line.Coordinates = append(line.Coordinates, domain.GeoPoint{Lat: p.Lat, Lon: p.Lon})
		}
	}
	return line, route.Trip.Summary.Time, nil
}
