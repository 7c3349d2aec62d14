package domain

import (
	"fmt"
	"time"
)

// MarkerKind distinguishes the two marker variants. IDs from the two variant
// spaces may collide numerically, so markers are always keyed by (kind, id).
type MarkerKind string

const (
	KindParkingLot MarkerKind = "lot"
	KindScanMarker MarkerKind = "scan"
)

// Marker is a point of interest a user can select to park: either a
// capacity-tracked parking lot or an individually reservable scan marker.
type Marker struct {
	Kind     MarkerKind `json:"kind"`
	ID       int64      `json:"id"`
	Location GeoPoint   `json:"location"`

	// Parking lot fields.
	HourlyPrice      float64 `json:"hourly_price,omitempty"`
	CurrentOccupancy int     `json:"current_occupancy,omitempty"`
	Capacity         int     `json:"capacity,omitempty"`
	StreetAddress    string  `json:"street_address,omitempty"`

	// Scan marker fields. IsOccupied is a backend-observed sensor fact and is
	// independent of IsReserved.
	Name       string `json:"name,omitempty"`
	IsReserved bool   `json:"is_reserved,omitempty"`
	IsOccupied bool   `json:"is_occupied,omitempty"`
}

// Key returns the (kind, id) identity of the marker.
func (m Marker) Key() MarkerKey {
	return MarkerKey{Kind: m.Kind, ID: m.ID}
}

// Selectable reports whether the marker can be chosen for a new reservation.
// A full lot, an occupied scan marker, or a scan marker reserved by another
// session is not selectable.
func (m Marker) Selectable() bool {
	switch m.Kind {
	case KindParkingLot:
		return m.Capacity == 0 || m.CurrentOccupancy < m.Capacity
	case KindScanMarker:
		return !m.IsOccupied && !m.IsReserved
	default:
		return false
	}
}

// MarkerKey identifies a marker across both variant spaces.
type MarkerKey struct {
	Kind MarkerKind `json:"kind"`
	ID   int64      `json:"id"`
}

func (k MarkerKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// MarkerSnapshot is an immutable view of the markers known to the agent.
// Writers publish a whole new snapshot with a higher version; readers never
// observe a partially updated marker set.
type MarkerSnapshot struct {
	Version   uint64               `json:"version"`
	Center    GeoPoint             `json:"center"`
	RadiusKm  float64              `json:"radius_km"`
	Markers   map[MarkerKey]Marker `json:"markers"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// List returns the snapshot markers as a slice.
func (s *MarkerSnapshot) List() []Marker {
	if s == nil {
		return nil
	}
	out := make([]Marker, 0, len(s.Markers))
	for _, m := range s.Markers {
		out = append(out, m)
	}
	return out
}

// Get looks a marker up by key.
func (s *MarkerSnapshot) Get(key MarkerKey) (Marker, bool) {
	if s == nil {
		return Marker{}, false
	}
	m, ok := s.Markers[key]
	return m, ok
}

// WithMarker returns a copy of the snapshot with one marker replaced and the
// version bumped. The receiver is left untouched.
func (s *MarkerSnapshot) WithMarker(m Marker) *MarkerSnapshot {
	next := &MarkerSnapshot{
		Version:   s.Version + 1,
		Center:    s.Center,
		RadiusKm:  s.RadiusKm,
		Markers:   make(map[MarkerKey]Marker, len(s.Markers)+1),
		FetchedAt: s.FetchedAt,
	}
	for k, v := range s.Markers {
		next.Markers[k] = v
	}
	next.Markers[m.Key()] = m
	return next
}

// SpotAssignment is the lot-assigned spot returned by the arrival endpoint.
type SpotAssignment struct {
	Level  string `json:"level"`
	Sector string `json:"sector"`
	Number int    `json:"number"`
}
