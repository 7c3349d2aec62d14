package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "parkpass",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Parking-domain metrics
	MarkerSearches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "markers",
		Name:      "searches_total",
		Help:      "Total marker searches issued against the backend",
	})

	ExpansionSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parkpass",
		Subsystem: "markers",
		Name:      "expansion_steps",
		Help:      "Radius-widening steps taken before a search terminated",
		Buckets:   []float64{1, 2, 3, 4, 5},
	})

	Reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "reservations",
		Name:      "transitions_total",
		Help:      "Reservation outcomes by kind (confirmed, conflict, released)",
	}, []string{"outcome"})

	TripPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "trip",
		Name:      "polls_total",
		Help:      "Trip monitor polls by kind (status, proximity)",
	}, []string{"kind"})

	TripPollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "trip",
		Name:      "poll_errors_total",
		Help:      "Trip monitor polls that failed and were retried",
	})

	Reassignments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "trip",
		Name:      "reassignments_total",
		Help:      "Fallback marker reassignments during confirmed trips",
	})

	Arrivals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "trip",
		Name:      "arrivals_total",
		Help:      "Lot arrivals reported to the backend",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "parkpass",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpass",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
