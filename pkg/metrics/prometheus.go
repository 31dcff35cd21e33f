// Package metrics provides Prometheus metrics for the security-bot pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the security-bot service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Pipeline Metrics - What really matters for an anomaly detector
	framesProcessed     prometheus.Counter
	detectionsScored    prometheus.Counter
	anomaliesFlagged    prometheus.Counter
	debounceSuppressed  *prometheus.CounterVec
	baselineMean        prometheus.Gauge
	baselineVariance    prometheus.Gauge

	// Escalation Queue Metrics
	queueCapacity    prometheus.Gauge
	queueSize        prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueOffers      prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejected    prometheus.Counter

	// Escalation Consumer Metrics
	workerActiveCount prometheus.Gauge
	decisionLatency   prometheus.Histogram
	decisionErrors    prometheus.Counter
	verdictsEmitted   prometheus.Counter

	// Leaderboard Metrics
	leaderboardInserts  *prometheus.CounterVec
	leaderboardSize     *prometheus.GaugeVec
	leaderboardSaves    prometheus.Counter
	leaderboardSaveErrs prometheus.Counter
	leaderboardRenames  prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// WebSocket Metrics
	wsClients      prometheus.Gauge
	wsMessagesSent prometheus.Counter

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "secbot",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Pipeline Metrics
	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_processed_total",
		Help:      "Total number of frames run through the pipeline",
	})

	m.detectionsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detections_scored_total",
		Help:      "Total number of detections scored against the baseline",
	})

	m.anomaliesFlagged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "anomalies_flagged_total",
		Help:      "Total number of detections whose z-score exceeded the cutoff",
	})

	m.debounceSuppressed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "debounce_suppressed_total",
		Help:      "Total number of routing actions suppressed by the debounce gate",
	}, []string{"target"})

	m.baselineMean = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_mean",
		Help:      "Current exponentially-weighted mean of similarity scores",
	})

	m.baselineVariance = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baseline_variance",
		Help:      "Current exponentially-weighted variance of similarity scores",
	})

	// Escalation Queue Metrics
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalation_queue_capacity",
		Help:      "Maximum escalation queue capacity",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalation_queue_size",
		Help:      "Current number of detections awaiting a decision",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalation_queue_utilization_ratio",
		Help:      "Escalation queue utilization (0.0 to 1.0)",
	})

	m.queueOffers = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalation_queue_offers_total",
		Help:      "Total number of detections accepted by the escalation queue",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalation_queue_dequeues_total",
		Help:      "Total number of detections handed to the consumer",
	})

	m.queueRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalation_queue_rejected_total",
		Help:      "Total number of offers rejected (queue full or closed); counted as sampling loss",
	})

	// Escalation Consumer Metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "consumer_active_workers",
		Help:      "Number of active escalation consumer workers",
	})

	m.decisionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_latency_milliseconds",
		Help:      "Histogram of external decision call latency in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	m.decisionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decision_errors_total",
		Help:      "Total number of failed external decision calls (items dropped)",
	})

	m.verdictsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "verdicts_emitted_total",
		Help:      "Total number of verdict events published to the sink",
	})

	// Leaderboard Metrics
	m.leaderboardInserts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_inserts_total",
		Help:      "Total number of leaderboard insertions",
	}, []string{"board"})

	m.leaderboardSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_size",
		Help:      "Current number of entries per leaderboard",
	}, []string{"board"})

	m.leaderboardSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_saves_total",
		Help:      "Total number of successful leaderboard persistence writes",
	})

	m.leaderboardSaveErrs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_save_errors_total",
		Help:      "Total number of failed leaderboard persistence writes (state kept in memory)",
	})

	m.leaderboardRenames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_renames_total",
		Help:      "Total number of successful leaderboard entry renames",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "Histogram of HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// WebSocket Metrics
	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_clients",
		Help:      "Number of connected verdict stream clients",
	})

	m.wsMessagesSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_messages_sent_total",
		Help:      "Total number of messages broadcast to verdict stream clients",
	})

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Pipeline Metrics Functions.

// RecordFrameProcessed increments the frames processed counter.
func RecordFrameProcessed() {
	globalManager.framesProcessed.Inc()
}

// RecordDetectionScored increments the detections scored counter.
func RecordDetectionScored() {
	globalManager.detectionsScored.Inc()
}

// RecordAnomalyFlagged increments the anomalies flagged counter.
func RecordAnomalyFlagged() {
	globalManager.anomaliesFlagged.Inc()
}

// RecordDebounceSuppressed increments the suppression counter for a routing target.
func RecordDebounceSuppressed(target string) {
	globalManager.debounceSuppressed.WithLabelValues(target).Inc()
}

// UpdateBaseline sets the current baseline mean and variance gauges.
func UpdateBaseline(mean, variance float64) {
	globalManager.baselineMean.Set(mean)
	globalManager.baselineVariance.Set(variance)
}

// Escalation Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueOffer increments the accepted offer counter.
func RecordQueueOffer() {
	globalManager.queueOffers.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueRejected increments the rejected offer counter.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// Escalation Consumer Metrics Functions.

// UpdateWorkerActiveCount sets the number of active consumer workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordDecisionLatency records external decision call latency in milliseconds.
func RecordDecisionLatency(latencyMs float64) {
	globalManager.decisionLatency.Observe(latencyMs)
}

// RecordDecisionError increments the decision error counter.
func RecordDecisionError() {
	globalManager.decisionErrors.Inc()
}

// RecordVerdictEmitted increments the verdicts emitted counter.
func RecordVerdictEmitted() {
	globalManager.verdictsEmitted.Inc()
}

// Leaderboard Metrics Functions.

// RecordLeaderboardInsert increments the insert counter for a board ("threat" or "nice").
func RecordLeaderboardInsert(board string) {
	globalManager.leaderboardInserts.WithLabelValues(board).Inc()
}

// UpdateLeaderboardSize sets the entry count gauge for a board.
func UpdateLeaderboardSize(board string, size int) {
	globalManager.leaderboardSize.WithLabelValues(board).Set(float64(size))
}

// RecordLeaderboardSave increments the successful save counter.
func RecordLeaderboardSave() {
	globalManager.leaderboardSaves.Inc()
}

// RecordLeaderboardSaveError increments the failed save counter.
func RecordLeaderboardSaveError() {
	globalManager.leaderboardSaveErrs.Inc()
}

// RecordLeaderboardRename increments the rename counter.
func RecordLeaderboardRename() {
	globalManager.leaderboardRenames.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// WebSocket Metrics Functions.

// UpdateWSClients sets the number of connected verdict stream clients.
func UpdateWSClients(count int) {
	globalManager.wsClients.Set(float64(count))
}

// RecordWSMessageSent increments the broadcast counter.
func RecordWSMessageSent() {
	globalManager.wsMessagesSent.Inc()
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
