package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/anderlopz/parkpass/internal/core/domain"
)

func validCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// SearchMarkersHandler fetches markers around a point. Without lat/lon the
// current device position is used.
func SearchMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radiusKm := c.QueryFloat("radius_km", 1.0)

		if lat == 0 && lon == 0 {
			pos := deps.Tracker.Current()
			if pos == nil {
				return errDomain(c, domain.ErrLocationUnavailable)
			}
			lat, lon = pos.Lat, pos.Lon
		}
		if !validCoords(lat, lon) {
			return errBadRequest(c, "lat must be -90..90 and lon -180..180")
		}
		if radiusKm <= 0 || radiusKm > 50 {
			return errBadRequest(c, "radius_km must be between 0 and 50")
		}

		markers, err := deps.Markers.Search(c.UserContext(), domain.GeoPoint{Lat: lat, Lon: lon}, radiusKm)
		if err != nil {
			return errDomain(c, err)
		}

		snap := deps.Markers.Snapshot()
		return c.JSON(fiber.Map{
			"markers": markers,
			"version": snap.Version,
			"count":   len(markers),
		})
	}
}

type expandRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ExpandSearchHandler runs the stepwise radius widening. Each widening step is
// announced on the event stream so the map can zoom out in lockstep.
func ExpandSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req expandRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !validCoords(req.Lat, req.Lon) {
			return errBadRequest(c, "lat must be -90..90 and lon -180..180")
		}

		ctx := c.UserContext()
		center := domain.GeoPoint{Lat: req.Lat, Lon: req.Lon}
		markers, err := deps.Expander.Expand(ctx, center, func(radiusKm float64) {
			if deps.Publisher != nil {
				_ = deps.Publisher.PublishSessionEvent(ctx, &domain.SessionEvent{
					Type:     domain.EventSearchRegion,
					RadiusKm: radiusKm,
					Time:     time.Now(),
				})
			}
		})
		if err != nil {
			return errDomain(c, err)
		}

		snap := deps.Markers.Snapshot()
		return c.JSON(fiber.Map{
			"markers":   markers,
			"version":   snap.Version,
			"radius_km": snap.RadiusKm,
			"count":     len(markers),
		})
	}
}

type addMarkerRequest struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

// AddMarkerHandler registers a new public scan marker with the backend.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addMarkerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !validCoords(req.Lat, req.Lon) {
			return errBadRequest(c, "lat must be -90..90 and lon -180..180")
		}
		if req.Name == "" {
			req.Name = "public space"
		}

		m, err := deps.Markers.AddPublicMarker(c.UserContext(), domain.GeoPoint{Lat: req.Lat, Lon: req.Lon}, req.Name)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(201).JSON(m)
	}
}

// GetSessionHandler returns the active session, or an idle placeholder.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := deps.Coordinator.Session()
		if s == nil {
			return c.JSON(fiber.Map{"status": domain.StatusIdle})
		}
		return c.JSON(s)
	}
}

type selectRequest struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// SelectMarkerHandler picks a marker from the current snapshot.
func SelectMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		kind := domain.MarkerKind(req.Kind)
		if kind != domain.KindParkingLot && kind != domain.KindScanMarker {
			return errBadRequest(c, "kind must be \"lot\" or \"scan\"")
		}

		key := domain.MarkerKey{Kind: kind, ID: req.ID}
		if err := deps.Coordinator.SelectMarker(c.UserContext(), key); err != nil {
			return errDomain(c, err)
		}
		return c.JSON(deps.Coordinator.Session())
	}
}

type routeRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RequestRouteHandler computes the drive-then-walk route to the destination.
// A partial route (one leg failed) still returns 200 with the session; the
// route's leg flags tell the UI what it can draw.
func RequestRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !validCoords(req.Lat, req.Lon) {
			return errBadRequest(c, "lat must be -90..90 and lon -180..180")
		}

		err := deps.Coordinator.RequestRoute(c.UserContext(), domain.GeoPoint{Lat: req.Lat, Lon: req.Lon})
		s := deps.Coordinator.Session()
		if err != nil {
			if s == nil || s.Route == nil {
				return errDomain(c, err)
			}
			return c.JSON(fiber.Map{"session": s, "warning": err.Error()})
		}
		return c.JSON(fiber.Map{"session": s})
	}
}

// ConfirmHandler starts the trip; for scan markers this is the reserve call.
func ConfirmHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Coordinator.Confirm(c.UserContext()); err != nil {
			return errDomain(c, err)
		}
		return c.JSON(deps.Coordinator.Session())
	}
}

type releaseRequest struct {
	Force bool `json:"force"`
}

// ReleaseHandler ends the trip. When the device is away from the destination
// the first call returns parked_outside_destination; the UI confirms the
// public-space parking and retries with force=true.
func ReleaseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req releaseRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		err := deps.Coordinator.Release(c.UserContext(), req.Force)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{"status": domain.StatusReleased})
	}
}

// GetPositionHandler returns the latest device position and heading.
func GetPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pos := deps.Tracker.Current()
		if pos == nil {
			return errDomain(c, domain.ErrLocationUnavailable)
		}
		resp := fiber.Map{"position": pos}
		if h := deps.Tracker.Heading(); h != nil {
			resp["heading"] = *h
		}
		return c.JSON(resp)
	}
}

type positionPush struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Altitude *float64 `json:"altitude"`
	Heading  *float64 `json:"heading"`
	Error    string   `json:"error"`
}

// PushPositionHandler ingests a GPS fix (or failure) from the platform shell.
func PushPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req positionPush
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if req.Error != "" {
			deps.Location.PushError(domain.ErrLocationUnavailable)
			return c.SendStatus(202)
		}

		if !validCoords(req.Lat, req.Lon) {
			return errBadRequest(c, "lat must be -90..90 and lon -180..180")
		}
		deps.Location.Push(domain.GeoPoint{Lat: req.Lat, Lon: req.Lon}, req.Altitude)
		if req.Heading != nil {
			deps.Location.PushHeading(*req.Heading)
		}
		return c.SendStatus(202)
	}
}

// ListTripsHandler returns the journaled trip history, newest first.
func ListTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Journal == nil {
			return errInternal(c, "journal not available")
		}

		sessions, err := deps.Journal.ListSessions(c.UserContext(), 100)
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		total := len(sessions)
		if offset >= total {
			sessions = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			sessions = sessions[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: sessions, Pagination: pg})
	}
}

// TripEventsHandler returns the journaled events of one session.
func TripEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Journal == nil {
			return errInternal(c, "journal not available")
		}
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "session id is required")
		}

		events, err := deps.Journal.ListEvents(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if len(events) == 0 {
			return errNotFound(c, "no events for session "+id)
		}
		return c.JSON(fiber.Map{"events": events, "count": len(events)})
	}
}
