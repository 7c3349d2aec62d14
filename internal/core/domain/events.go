package domain

import "time"

// SessionEventType enumerates the events the coordinator and trip monitor emit.
// The map UI subscribes to these; it never derives lifecycle state on its own.
type SessionEventType string

const (
	EventTransition      SessionEventType = "transition"
	EventReassignment    SessionEventType = "reassignment"
	EventArrival         SessionEventType = "arrival"
	EventNoSpotsNearby   SessionEventType = "no_spots_nearby"
	EventCancelFailed    SessionEventType = "cancel_failed"
	EventMonitorDegraded SessionEventType = "monitor_degraded"
	EventSearchRegion    SessionEventType = "search_region"
	EventRouteDeviation  SessionEventType = "route_deviation"
	EventLocationLost    SessionEventType = "location_lost"
)

// SessionEvent is published on every state-machine transition and trip-monitor
// decision.
type SessionEvent struct {
	Type       SessionEventType `json:"type"`
	SessionID  string           `json:"session_id,omitempty"`
	From       SessionStatus    `json:"from,omitempty"`
	To         SessionStatus    `json:"to,omitempty"`
	Marker     *Marker          `json:"marker,omitempty"`
	OldMarker  *Marker          `json:"old_marker,omitempty"`
	Assignment *SpotAssignment  `json:"assignment,omitempty"`
	RadiusKm   float64          `json:"radius_km,omitempty"`
	DistanceM  float64          `json:"distance_m,omitempty"`
	Error      string           `json:"error,omitempty"`
	Time       time.Time        `json:"time"`
}
