// Package metrics provides Prometheus metrics for the thumbscope service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Analysis pipeline
	analysesTotal     *prometheus.CounterVec
	analysisLatency   prometheus.Histogram
	scoreDistribution prometheus.Histogram
	repeatSubmissions prometheus.Counter

	// Remote model
	modelCalls   *prometheus.CounterVec
	modelLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter

	// Sessions
	sessionCount prometheus.Gauge

	// Runtime
	goroutines prometheus.Gauge

	// Errors by component
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// NewManager creates a Manager with all collectors registered on a
// private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "thumbscope",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Name: name, Help: help}
	}

	m.analysesTotal = prometheus.NewCounterVec(
		factory("analyses_total", "Completed analyses by sub-score source."),
		[]string{"source"},
	)
	m.analysisLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "analysis_duration_ms",
		Help:      "End-to-end analysis latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.scoreDistribution = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "calibrated_score",
		Help:      "Distribution of final calibrated scores.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})
	m.repeatSubmissions = prometheus.NewCounter(
		factory("repeat_submissions_total", "Thumbnails flagged as perceptual repeats."))

	m.modelCalls = prometheus.NewCounterVec(
		factory("model_calls_total", "Remote model calls by outcome."),
		[]string{"outcome"},
	)
	m.modelLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "model_call_duration_ms",
		Help:      "Remote model call latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = prometheus.NewCounterVec(
		factory("http_requests_total", "HTTP requests by endpoint, method, and status."),
		[]string{"endpoint", "method", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.queueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "queue_size", Help: "Current async job queue depth."})
	m.queueCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "queue_capacity", Help: "Async job queue capacity."})
	m.queueEnqueues = prometheus.NewCounter(
		factory("queue_enqueues_total", "Jobs accepted into the queue."))
	m.queueDequeues = prometheus.NewCounter(
		factory("queue_dequeues_total", "Jobs handed to workers."))
	m.queueEnqueueErrors = prometheus.NewCounter(
		factory("queue_enqueue_errors_total", "Jobs rejected by the queue."))

	m.workerCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "worker_count", Help: "Configured worker goroutines."})
	m.workerLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "worker_processing_duration_ms",
		Help:      "Per-job worker latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = prometheus.NewCounter(
		factory("worker_errors_total", "Jobs that failed in a worker."))

	m.sessionCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "session_count", Help: "Known sessions."})

	m.goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "goroutines", Help: "Current goroutine count."})

	m.errorsByComponent = prometheus.NewCounterVec(
		factory("errors_total", "Errors by component and kind."),
		[]string{"component", "kind"},
	)

	m.registry.MustRegister(
		m.analysesTotal, m.analysisLatency, m.scoreDistribution, m.repeatSubmissions,
		m.modelCalls, m.modelLatency,
		m.httpRequests, m.httpRequestDuration,
		m.queueSize, m.queueCapacity, m.queueEnqueues, m.queueDequeues, m.queueEnqueueErrors,
		m.workerCount, m.workerLatency, m.workerErrors,
		m.sessionCount, m.goroutines, m.errorsByComponent,
	)
}

// Package-level helpers over the global manager.

// RecordAnalysis counts one completed analysis by sub-score source.
func RecordAnalysis(source string) {
	globalManager.analysesTotal.WithLabelValues(source).Inc()
}

// RecordAnalysisLatency observes end-to-end analysis latency.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordScore observes a final calibrated score.
func RecordScore(score float64) {
	globalManager.scoreDistribution.Observe(score)
}

// RecordRepeatSubmission counts a perceptual repeat.
func RecordRepeatSubmission() {
	globalManager.repeatSubmissions.Inc()
}

// RecordModelCall counts a remote model call by outcome
// (ok, degraded, timeout, error, disabled).
func RecordModelCall(outcome string) {
	globalManager.modelCalls.WithLabelValues(outcome).Inc()
}

// RecordModelLatency observes remote model call latency.
func RecordModelLatency(latencyMs float64) {
	globalManager.modelLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes HTTP request latency.
func RecordHTTPRequestDuration(endpoint, method, status string, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the live worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes per-job worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateSessionCount sets the known-session gauge.
func UpdateSessionCount(count int) {
	globalManager.sessionCount.Set(float64(count))
}

// UpdateGoroutineCount sets the goroutine gauge.
func UpdateGoroutineCount(count int) {
	globalManager.goroutines.Set(float64(count))
}

// RecordErrorByComponent counts an error by component and kind.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the private registry for exposition handlers.
func GetRegistry() *prometheus.Registry {
	return globalManager.registry
}
