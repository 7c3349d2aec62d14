package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/anderlopz/parkpass/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: generous, the only client is the local UI shell but a
	// runaway render loop should not be able to hammer the backend through us.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1. The expand endpoint paces itself between widening steps, so
	// it gets a budget covering all steps; everything else finishes fast.
	v1 := app.Group("/v1")
	v1.Get("/markers/search", timeout.NewWithContext(SearchMarkersHandler(deps), 15*time.Second))
	v1.Post("/markers/expand", timeout.NewWithContext(ExpandSearchHandler(deps), 60*time.Second))
	v1.Post("/markers", timeout.NewWithContext(AddMarkerHandler(deps), 15*time.Second))
	v1.Get("/session", GetSessionHandler(deps))
	v1.Post("/session/select", timeout.NewWithContext(SelectMarkerHandler(deps), 15*time.Second))
	v1.Post("/session/route", timeout.NewWithContext(RequestRouteHandler(deps), 15*time.Second))
	v1.Post("/session/confirm", timeout.NewWithContext(ConfirmHandler(deps), 15*time.Second))
	v1.Post("/session/release", timeout.NewWithContext(ReleaseHandler(deps), 15*time.Second))
	v1.Get("/position", GetPositionHandler(deps))
	v1.Post("/position", PushPositionHandler(deps))
	v1.Get("/trips", timeout.NewWithContext(ListTripsHandler(deps), 15*time.Second))
	v1.Get("/trips/:id/events", timeout.NewWithContext(TripEventsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API docs
	SetupDocs(app)

	// WebSocket event relay
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
