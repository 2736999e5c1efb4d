// Package metrics provides Prometheus metrics for the Goose Trials score API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scores
	scoresSubmitted   *prometheus.CounterVec
	newHighScores     *prometheus.CounterVec
	guestMigrations   prometheus.Counter
	guestScoresMoved  prometheus.Counter
	distributionRuns  *prometheus.CounterVec
	filterFallbacks   *prometheus.CounterVec
	storeQueryLatency *prometheus.HistogramVec

	// Cache
	cacheRequests *prometheus.CounterVec

	// Post-commit pipeline
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDropped   *prometheus.CounterVec
	workerCount    prometheus.Gauge
	workerEvents   prometheus.Counter
	workerErrors   prometheus.Counter
	workerLatency  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "goose",
		subsystem:        "trials",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scoresSubmitted = m.counterVec("scores_submitted_total",
		"Score submissions by game and outcome (accepted, duplicate, rejected)", "game", "outcome")
	m.newHighScores = m.counterVec("new_high_scores_total",
		"Submissions that beat the subject's previous best", "game")
	m.guestMigrations = m.counter("guest_migrations_total",
		"Guest-to-account migrations executed")
	m.guestScoresMoved = m.counter("guest_scores_migrated_total",
		"Score rows rebound from guest ids to user ids")
	m.distributionRuns = m.counterVec("distribution_computations_total",
		"Distribution estimates by game and result (curve, degenerate)", "game", "result")
	m.filterFallbacks = m.counterVec("distribution_filter_fallbacks_total",
		"Plausible-range filters discarded because they removed more than half the samples", "game")
	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds",
		"Store operation latency in milliseconds", "op")

	m.cacheRequests = m.counterVec("cache_requests_total",
		"Response cache lookups by result (hit, miss, error)", "result")

	m.queueSize = m.gauge("queue_size", "Current number of queued score events")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued score events")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Score events enqueued")
	m.queueDropped = m.counterVec("queue_dropped_total",
		"Score events dropped before reaching a worker", "reason")
	m.workerCount = m.gauge("worker_count", "Number of post-commit workers")
	m.workerEvents = m.counter("worker_events_processed_total", "Score events handled by workers")
	m.workerErrors = m.counter("worker_errors_total", "Score events whose handling failed")
	m.workerLatency = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "Worker handling latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"HTTP error responses by endpoint", "endpoint", "method", "error_type")
	m.rateLimited = m.counterVec("rate_limited_total",
		"Requests rejected by the write rate limiter", "endpoint")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "system_gc_pause_time_milliseconds",
		Help:    "Average GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
}

// RecordScoreSubmitted counts a submission outcome for a game.
func RecordScoreSubmitted(game, outcome string) {
	globalManager.scoresSubmitted.WithLabelValues(game, outcome).Inc()
}

// RecordNewHighScore counts a submission that improved a personal best.
func RecordNewHighScore(game string) {
	globalManager.newHighScores.WithLabelValues(game).Inc()
}

// RecordGuestMigration counts one migration and the rows it moved.
func RecordGuestMigration(moved int) {
	globalManager.guestMigrations.Inc()
	globalManager.guestScoresMoved.Add(float64(moved))
}

// RecordDistribution counts a distribution estimate.
func RecordDistribution(game string, degenerate bool) {
	result := "curve"
	if degenerate {
		result = "degenerate"
	}
	globalManager.distributionRuns.WithLabelValues(game, result).Inc()
}

// RecordFilterFallback counts a discarded plausible-range filter.
func RecordFilterFallback(game string) {
	globalManager.filterFallbacks.WithLabelValues(game).Inc()
}

// RecordStoreLatency observes a store operation latency.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordCacheResult counts a cache lookup (hit, miss, error).
func RecordCacheResult(result string) {
	globalManager.cacheRequests.WithLabelValues(result).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted event.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDropped counts an event that was not enqueued.
func RecordQueueDropped(reason string) {
	globalManager.queueDropped.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerEvent observes one handled event.
func RecordWorkerEvent(latencyMs float64, err error) {
	globalManager.workerEvents.Inc()
	globalManager.workerLatency.Observe(latencyMs)
	if err != nil {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global collectors live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
