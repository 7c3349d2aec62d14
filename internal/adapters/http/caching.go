package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler. Session and position
// state is always fresh; only marker data tolerates short client caching.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0"

		case strings.HasPrefix(path, "/v1/markers"):
			ttl = "private, max-age=30" // Availability flags go stale fast

		case strings.HasPrefix(path, "/v1/session"):
			ttl = "no-store" // Live state machine, never cache

		case path == "/v1/position":
			ttl = "no-store"

		case strings.HasPrefix(path, "/v1/trips"):
			ttl = "private, max-age=60" // Journal history changes on release only

		case strings.HasPrefix(path, "/v1/"):
			ttl = "private, max-age=10"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
