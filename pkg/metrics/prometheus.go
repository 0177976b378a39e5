// Package metrics provides Prometheus metrics for the winner query API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels recorded per operation invocation.
const (
	OutcomeSuccess      = "success"
	OutcomeClientError  = "client_error"
	OutcomeStoreError   = "store_error"
	OutcomeSecurityRisk = "security_risk"
)

// Manager manages all Prometheus metrics for the winner service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Operation metrics
	operationOutcomes  *prometheus.CounterVec
	operationLatency   *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	securityRisks      *prometheus.CounterVec

	// Store metrics
	storeQueryLatency *prometheus.HistogramVec
	storeQueryErrors  *prometheus.CounterVec
	storeRecords      *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "winner",
		subsystem:        "api",
		histogramBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.operationOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "operation_outcomes_total",
			Help:        "Operation invocations by method and terminal outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"method", "outcome"},
	)

	m.operationLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "operation_latency_milliseconds",
			Help:        "End-to-end operation latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"method", "outcome"},
	)

	m.validationFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "schema_validation_failures_total",
			Help:        "Schema validation failures by schema id",
			ConstLabels: m.constLabels,
		},
		[]string{"schema"},
	)

	m.securityRisks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "security_risks_total",
			Help:        "Store records rejected by their item schema (data corruption or tampering)",
			ConstLabels: m.constLabels,
		},
		[]string{"method"},
	)

	m.storeQueryLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "store_query_latency_milliseconds",
			Help:        "Query store latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"backend", "query"},
	)

	m.storeQueryErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "store_query_errors_total",
			Help:        "Query store failures",
			ConstLabels: m.constLabels,
		},
		[]string{"backend", "query"},
	)

	m.storeRecords = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "store_query_records",
			Help:        "Number of records returned per store query",
			Buckets:     []float64{0, 1, 3, 10, 25, 100, 500},
			ConstLabels: m.constLabels,
		},
		[]string{"backend", "query"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Errors by type and severity",
			ConstLabels: m.constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Errors by endpoint, method and type",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordOperation records the terminal outcome and latency of one operation.
func (m *Manager) RecordOperation(method, outcome string, latencyMs float64) {
	m.operationOutcomes.WithLabelValues(method, outcome).Inc()
	m.operationLatency.WithLabelValues(method, outcome).Observe(latencyMs)
}

// RecordValidationFailure counts a schema validation failure.
func (m *Manager) RecordValidationFailure(schemaID string) {
	m.validationFailures.WithLabelValues(schemaID).Inc()
}

// RecordSecurityRisk counts store data rejected by its item schema.
func (m *Manager) RecordSecurityRisk(method string) {
	m.securityRisks.WithLabelValues(method).Inc()
}

// RecordStoreQuery records latency and result size of a successful store query.
func (m *Manager) RecordStoreQuery(backend, query string, latencyMs float64, records int) {
	m.storeQueryLatency.WithLabelValues(backend, query).Observe(latencyMs)
	m.storeRecords.WithLabelValues(backend, query).Observe(float64(records))
}

// RecordStoreError counts a failed store query.
func (m *Manager) RecordStoreError(backend, query string, latencyMs float64) {
	m.storeQueryLatency.WithLabelValues(backend, query).Observe(latencyMs)
	m.storeQueryErrors.WithLabelValues(backend, query).Inc()
}

// RecordOperation records an operation outcome on the global manager.
func RecordOperation(method, outcome string, latencyMs float64) {
	globalManager.RecordOperation(method, outcome, latencyMs)
}

// RecordValidationFailure counts a schema validation failure on the global manager.
func RecordValidationFailure(schemaID string) {
	globalManager.RecordValidationFailure(schemaID)
}

// RecordSecurityRisk counts rejected store data on the global manager.
func RecordSecurityRisk(method string) {
	globalManager.RecordSecurityRisk(method)
}

// RecordStoreQuery records a successful store query on the global manager.
func RecordStoreQuery(backend, query string, latencyMs float64, records int) {
	globalManager.RecordStoreQuery(backend, query, latencyMs, records)
}

// RecordStoreError records a failed store query on the global manager.
func RecordStoreError(backend, query string, latencyMs float64) {
	globalManager.RecordStoreError(backend, query, latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
