package domain

import "errors"

// Error taxonomy. Callers match with errors.Is; adapters wrap these with
// transport detail.
var (
	// ErrLocationUnavailable is reported when the geolocation capability is
	// denied, times out, or has not produced a fix yet.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrMarkerFetch covers network or parse failures while searching markers.
	// The previous marker snapshot stays in place.
	ErrMarkerFetch = errors.New("marker fetch failed")

	// ErrNoSpotsFound is returned after a full search expansion finds nothing.
	ErrNoSpotsFound = errors.New("no available spots found")

	// ErrReservationConflict means the backend rejected a reserve call, usually
	// because the spot was taken first.
	ErrReservationConflict = errors.New("reservation conflict")

	// ErrReservationCancelFailed marks a best-effort cancel that did not reach
	// the backend. The local release still completes.
	ErrReservationCancelFailed = errors.New("reservation cancel failed")

	// ErrRouteQuery covers a failed directions leg. A partial estimate may
	// still be usable.
	ErrRouteQuery = errors.New("route query failed")

	// ErrNoSpotsNearby is the terminal notice when reassignment finds no
	// fallback marker. The user must re-pick manually.
	ErrNoSpotsNearby = errors.New("no available spots nearby")

	// ErrArrivalReport marks a failed arrival call; it is retried on the next
	// poll tick.
	ErrArrivalReport = errors.New("arrival report failed")

	// ErrTripActive rejects marker selection while a trip is confirmed.
	ErrTripActive = errors.New("trip already active")

	// ErrTransitionInFlight rejects a transition while another one is pending.
	ErrTransitionInFlight = errors.New("state transition in flight")

	// ErrInvalidTransition rejects operations not legal in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotSelectable rejects selection of occupied or foreign-reserved markers.
	ErrNotSelectable = errors.New("marker not selectable")

	// ErrParkedOutsideDestination signals the release-time proximity gate: the
	// device is farther than the arrival threshold from the destination and the
	// caller must confirm parking in a public space before release finalizes.
	ErrParkedOutsideDestination = errors.New("parked outside destination")
)
