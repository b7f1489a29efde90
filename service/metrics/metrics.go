package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal    *prometheus.CounterVec
	solanaRPCCallDuration  *prometheus.HistogramVec
	solanaRPCRateLimitWait *prometheus.HistogramVec

	// Lookup Metrics
	lookupsTotal            *prometheus.CounterVec
	lookupDuration          *prometheus.HistogramVec
	instructionsPerLookup   *prometheus.HistogramVec
	networkSelectionsTotal  *prometheus.CounterVec
	preferenceWritesTotal   *prometheus.CounterVec
	sessionsCreatedTotal    prometheus.Counter
	lookupsRejectedInFlight prometheus.Counter

	// Database Metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "network"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "network"},
		),
		solanaRPCRateLimitWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_rate_limit_wait_seconds",
				Help:    "Time spent waiting on the local RPC rate limiter",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"network"},
		),

		// Lookup Metrics
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_lookups_total",
				Help: "Total number of transaction lookups by network and outcome",
			},
			[]string{"network", "outcome"},
		),
		lookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_lookup_duration_seconds",
				Help:    "End-to-end duration of transaction lookups in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"network", "outcome"},
		),
		instructionsPerLookup: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_lookup_instructions",
				Help:    "Number of instructions (top-level and inner) per successful lookup",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"network"},
		),
		networkSelectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "network_selections_total",
				Help: "Total number of network selections by network type",
			},
			[]string{"network"},
		),
		preferenceWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preference_writes_total",
				Help: "Total number of preference writes by key and status",
			},
			[]string{"key", "status"},
		),
		sessionsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_created_total",
				Help: "Total number of lookup sessions created",
			},
		),
		lookupsRejectedInFlight: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transaction_lookups_rejected_in_flight_total",
				Help: "Lookups rejected because the session already had one in flight",
			},
		),

		// Database Metrics
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
// The network label is the network type, never the endpoint URL, since
// custom URLs may carry API keys.
func (m *Metrics) RecordRPCCall(method, status, network string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, network).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, network).Observe(duration)
}

// RecordRateLimitWait records time spent blocked on the RPC limiter.
func (m *Metrics) RecordRateLimitWait(network string, duration float64) {
	m.solanaRPCRateLimitWait.WithLabelValues(network).Observe(duration)
}

// Lookup metric helpers

// RecordLookup records a finished lookup. outcome is "success" or one of
// "validation_error", "not_found_error", "fetch_error".
func (m *Metrics) RecordLookup(network, outcome string, duration float64) {
	m.lookupsTotal.WithLabelValues(network, outcome).Inc()
	m.lookupDuration.WithLabelValues(network, outcome).Observe(duration)
}

// RecordInstructionsPerLookup records the size of a rendered instruction list.
func (m *Metrics) RecordInstructionsPerLookup(network string, count float64) {
	m.instructionsPerLookup.WithLabelValues(network).Observe(count)
}

// RecordNetworkSelection records a network switch.
func (m *Metrics) RecordNetworkSelection(network string) {
	m.networkSelectionsTotal.WithLabelValues(network).Inc()
}

// RecordPreferenceWrite records a persisted preference write.
func (m *Metrics) RecordPreferenceWrite(key string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.preferenceWritesTotal.WithLabelValues(key, status).Inc()
}

// RecordSessionCreated records a new session.
func (m *Metrics) RecordSessionCreated() {
	m.sessionsCreatedTotal.Inc()
}

// RecordLookupRejected records a lookup refused while another was in flight.
func (m *Metrics) RecordLookupRejected() {
	m.lookupsRejectedInFlight.Inc()
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
