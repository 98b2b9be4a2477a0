package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LedgerToggles counts like/follow toggles by ledger and resulting state.
	LedgerToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_ledger_toggles_total",
		Help: "Total number of engagement and relationship toggles",
	}, []string{"ledger", "state"})

	// FeedRequests counts composed feed pages by kind (global, author, profile).
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_feed_requests_total",
		Help: "Total number of composed feed pages",
	}, []string{"kind"})

	// SessionEvents counts session issuance and validation outcomes.
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_session_events_total",
		Help: "Session issue/validate/revoke outcomes",
	}, []string{"event", "outcome"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordToggle records the resulting state of a ledger toggle.
func RecordToggle(ledger string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	LedgerToggles.WithLabelValues(ledger, state).Inc()
}
