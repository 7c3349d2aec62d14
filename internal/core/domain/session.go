package domain

import "time"

// SessionStatus is the reservation state machine state.
type SessionStatus string

const (
	StatusIdle           SessionStatus = "idle"
	StatusSelecting      SessionStatus = "selecting"
	StatusRouteDisplayed SessionStatus = "route_displayed"
	StatusReserved       SessionStatus = "reserved"
	StatusConfirmed      SessionStatus = "confirmed"
	StatusReleased       SessionStatus = "released"
)

// ReservationSession ties a selected marker to the user's final destination.
// Exactly one session is active per device; the coordinator owns it and is the
// only component allowed to call reserve/cancel/confirm backend endpoints.
type ReservationSession struct {
	ID          string          `json:"id"`
	Status      SessionStatus   `json:"status"`
	Marker      Marker          `json:"marker"`
	Destination GeoPoint        `json:"destination"`
	Route       *RouteEstimate  `json:"route,omitempty"`
	Assignment  *SpotAssignment `json:"assignment,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RouteEstimate is the combined drive-then-walk route for a session. Derived
// data: recomputed whenever origin, marker, or destination changes, never
// persisted.
type RouteEstimate struct {
	DrivingPolyline GeoLineString `json:"driving_polyline"`
	WalkingPolyline GeoLineString `json:"walking_polyline"`
	// ETASeconds is the driving duration only. The walking leg is shown on the
	// map but excluded from the headline ETA.
	ETASeconds float64 `json:"eta_seconds"`
	// DrivingOK / WalkingOK mark which legs were actually computed; either
	// directions query may fail without discarding the other's result.
	DrivingOK bool `json:"driving_ok"`
	WalkingOK bool `json:"walking_ok"`
}
