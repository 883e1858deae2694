package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldmark_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldmark_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Matching pass metrics
	matchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldmark_match_requests_total",
			Help: "Total number of matching passes",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	matchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldmark_match_duration_seconds",
			Help:    "Matching pass duration in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"transport"},
	)

	fragmentsPerRequest = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldmark_fragments_per_request",
			Help:    "Number of text fragments per matching pass",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	fieldsResolved = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldmark_fields_resolved",
			Help:    "Number of fields resolved per matching pass",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
		[]string{"transport"},
	)

	fieldsByStrategy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldmark_fields_by_strategy_total",
			Help: "Total number of fields resolved, by match strategy",
		},
		[]string{"strategy"},
	)

	mappingTableRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldmark_mapping_table_rules",
			Help: "Number of rules in the published mapping table",
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldmark_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour
	)

	// Request body metrics
	requestBodyBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldmark_request_body_bytes",
			Help:    "Size of request bodies in bytes",
			Buckets: []float64{256, 1024, 4 * 1024, 16 * 1024, 64 * 1024, 256 * 1024, 1024 * 1024, 10 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldmark_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldmark_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
