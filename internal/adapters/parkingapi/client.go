package parkingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
)

// Client implements ports.ParkingAPI against the parking backend's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     ports.TokenProvider
}

// New creates a client. tokens may be nil for unauthenticated backends.
func New(baseURL string, timeout time.Duration, tokens ports.TokenProvider) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// lotRow is the backend's parking-lot wire shape.
type lotRow struct {
	ID               int64   `json:"id"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	HourlyPrice      float64 `json:"hourly_price"`
	CurrentOccupancy int     `json:"current_occupancy"`
	Capacity         int     `json:"capacity"`
	StreetAddress    string  `json:"street_address"`
}

// scanRow is the backend's scan-marker wire shape.
type scanRow struct {
	ID         int64   `json:"id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Name       string  `json:"name"`
	IsReserved bool    `json:"is_reserved"`
	IsOccupied bool    `json:"is_occupied"`
}

// SearchLots fetches parking-lot aggregates within radiusKm of center.
func (c *Client) SearchLots(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(center.Lon, 'f', -1, 64))
	q.Set("distance", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var rows []lotRow
	if err := c.get(ctx, "/parking/radius-search?"+q.Encode(), &rows); err != nil {
		return nil, err
	}

	markers := make([]domain.Marker, 0, len(rows))
	for _, r := range rows {
		markers = append(markers, domain.Marker{
			Kind:             domain.KindParkingLot,
			ID:               r.ID,
			Location:         domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
			HourlyPrice:      r.HourlyPrice,
			CurrentOccupancy: r.CurrentOccupancy,
			Capacity:         r.Capacity,
			StreetAddress:    r.StreetAddress,
		})
	}
	return markers, nil
}

// SearchScanMarkers fetches individually reservable spots within radiusKm.
func (c *Client) SearchScanMarkers(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Marker, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(center.Lon, 'f', -1, 64))
	q.Set("distance", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var rows []scanRow
	if err := c.get(ctx, "/marker/scan?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	return scanRowsToMarkers(rows), nil
}

// Reserve claims a scan marker. The backend reports a lost race as an
// {error} body rather than a status code.
func (c *Client) Reserve(ctx context.Context, markerID int64) error {
	return c.patch(ctx, fmt.Sprintf("/marker/reserve/%d", markerID))
}

// CancelReservation releases a reserved scan marker.
func (c *Client) CancelReservation(ctx context.Context, markerID int64) error {
	return c.patch(ctx, fmt.Sprintf("/marker/cancel-reservation/%d", markerID))
}

// MarkerStatus reads the live occupancy and reservation flags of a marker.
func (c *Client) MarkerStatus(ctx context.Context, markerID int64) (bool, bool, error) {
	var status struct {
		IsOccupied bool `json:"is_occupied"`
		IsReserved bool `json:"is_reserved"`
	}
	if err := c.get(ctx, fmt.Sprintf("/marker/status/%d", markerID), &status); err != nil {
		return false, false, err
	}
	return status.IsOccupied, status.IsReserved, nil
}

// ClosestAvailable returns the nearest free scan marker, or nil when the
// backend has none to offer.
func (c *Client) ClosestAvailable(ctx context.Context, near domain.GeoPoint) (*domain.Marker, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(near.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(near.Lon, 'f', -1, 64))

	var row *scanRow
	if err := c.get(ctx, "/marker/closest-available?"+q.Encode(), &row); err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	m := scanRowsToMarkers([]scanRow{*row})[0]
	return &m, nil
}

// ReportArrival tells the backend the user reached a lot; the response carries
// the assigned spot.
func (c *Client) ReportArrival(ctx context.Context, streetAddress string) (*domain.SpotAssignment, error) {
	body := map[string]string{"streetAddress": streetAddress}
	var assignment domain.SpotAssignment
	if err := c.post(ctx, "/parking/available-spot", body, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// AddMarker creates a public scan marker at the given position.
func (c *Client) AddMarker(ctx context.Context, at domain.GeoPoint, name string) (*domain.Marker, error) {
	body := map[string]any{"lat": at.Lat, "lng": at.Lon}
	if name != "" {
		body["name"] = name
	}
	var row scanRow
	if err := c.post(ctx, "/marker/add-marker", body, &row); err != nil {
		return nil, err
	}
	m := scanRowsToMarkers([]scanRow{row})[0]
	return &m, nil
}

func scanRowsToMarkers(rows []scanRow) []domain.Marker {
	markers := make([]domain.Marker, 0, len(rows))
	for _, r := range rows {
		markers = append(markers, domain.Marker{
			Kind:       domain.KindScanMarker,
			ID:         r.ID,
			Location:   domain.GeoPoint{Lat: r.Lat, Lon: r.Lng},
			Name:       r.Name,
			IsReserved: r.IsReserved,
			IsOccupied: r.IsOccupied,
		})
	}
	return markers
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// patch issues a body-less PATCH and maps an {error} response to a conflict.
func (c *Client) patch(ctx context.Context, path string) error {
	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPatch, path, nil, &result); err != nil {
		return err
	}
	if result.Error != "" {
		return fmt.Errorf("backend rejected request: %s", result.Error)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("fetch token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
