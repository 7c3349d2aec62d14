package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricSearchLatencyP50 = "search.latency.p50"
	MetricSearchLatencyP95 = "search.latency.p95"

	// Freshness
	MetricSnapshotAge = "markers.snapshot_age_seconds"
	MetricPositionAge = "location.fix_age_seconds"
	MetricPollLatency = "trip.poll_latency"

	// Availability
	MetricUptime = "agent.uptime_percentage"

	// Business
	MetricReservations  = "business.reservations_confirmed"
	MetricReassignments = "business.trip_reassignments"
)
