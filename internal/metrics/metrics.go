package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelftalk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelftalk_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelftalk_messages_appended_total",
			Help: "Total messages appended to session logs",
		},
		[]string{"role"},
	)

	TurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelftalk_turns_completed_total",
			Help: "Total assistant turns by terminal status",
		},
		[]string{"status"}, // "complete" or "error"
	)

	GeneratorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelftalk_generator_latency_seconds",
			Help:    "Response generation latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"}, // "demo" or "live"
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelftalk_active_streams",
			Help: "Currently connected stream viewers",
		},
	)

	StreamEventsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelftalk_stream_events_delivered_total",
			Help: "Total messages delivered to stream viewers",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelftalk_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelftalk_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)
)
