package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, conflict, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errDomain maps coordinator and marker errors to HTTP responses. Sentinel
// errors become stable machine-readable codes the UI can branch on.
func errDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrTransitionInFlight):
		return newError(c, 409, "transition_in_flight", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return newError(c, 409, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrTripActive):
		return newError(c, 409, "trip_active", err.Error())
	case errors.Is(err, domain.ErrReservationConflict):
		return newError(c, 409, "reservation_conflict", err.Error())
	case errors.Is(err, domain.ErrParkedOutsideDestination):
		return newError(c, 409, "parked_outside_destination", err.Error())
	case errors.Is(err, domain.ErrNotSelectable):
		return newError(c, 422, "not_selectable", err.Error())
	case errors.Is(err, domain.ErrNoSpotsFound):
		return newError(c, 404, "no_spots_found", err.Error())
	case errors.Is(err, domain.ErrLocationUnavailable):
		return newError(c, 503, "location_unavailable", err.Error())
	case errors.Is(err, domain.ErrMarkerFetch), errors.Is(err, domain.ErrRouteQuery):
		return newError(c, 502, "upstream_error", err.Error())
	case errors.Is(err, domain.ErrReservationCancelFailed):
		// The local release went through; the stale backend reservation is
		// retried out-of-band.
		return newError(c, 502, "cancel_failed", err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
