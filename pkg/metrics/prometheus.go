// Package metrics provides Prometheus metrics for the tribescore service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Compilation
	compilations      prometheus.Counter
	compileErrors     *prometheus.CounterVec
	compileLatency    prometheus.Histogram
	compiledEntities  *prometheus.GaugeVec
	jobsDuplicate     prometheus.Counter
	standingsUpdates  prometheus.Counter
	leaguesTracked    prometheus.Gauge
	standingsQueryLat prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWait          prometheus.Histogram

	// Workers
	workerCount   prometheus.Gauge
	workerActive  prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// Runtime
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
}

var (
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton used by the package-level recorders
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz
)

func init() { //nolint:gochecknoinits // global manager setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tribescore",
		subsystem:        "compiler",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.compilations = m.counter("compilations_total", "Total number of successful compilations")
	m.compileErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "compile_errors_total",
		Help: "Compilations rejected, by error kind",
	}, []string{"kind"})
	m.compileLatency = m.histogram("compile_latency_milliseconds", "Time spent compiling one league")
	m.compiledEntities = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "compiled_entities",
		Help: "Entities in the most recent compiled table, by bucket",
	}, []string{"bucket"})
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Compile jobs dropped as duplicates")
	m.standingsUpdates = m.counter("standings_updates_total", "Compiled results stored as standings")
	m.leaguesTracked = m.gauge("leagues_tracked", "Leagues with stored standings")
	m.standingsQueryLat = m.histogram("standings_query_latency_milliseconds", "Standings lookup latency")

	m.queueSize = m.gauge("queue_size", "Compile jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queued compile jobs")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Compile jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Compile jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Compile jobs rejected by the queue")
	m.queueWait = m.histogram("queue_wait_milliseconds", "Time between submit and dequeue")

	m.workerCount = m.gauge("worker_count", "Configured compile workers")
	m.workerActive = m.gauge("worker_active", "Workers currently compiling")
	m.workerLatency = m.histogram("worker_processing_milliseconds", "Time a worker spends on one job")
	m.workerErrors = m.counter("worker_errors_total", "Jobs that failed in a worker")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_total",
		Help: "Errors by component and kind",
	}, []string{"component", "kind"})

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutines = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordCompilation records a successful compilation.
func (m *Manager) RecordCompilation(latency time.Duration, entities map[string]int) {
	if !m.enabled {
		return
	}
	m.compilations.Inc()
	m.compileLatency.Observe(float64(latency) / float64(time.Millisecond))
	for bucket, n := range entities {
		m.compiledEntities.WithLabelValues(bucket).Set(float64(n))
	}
}

// RecordCompileError counts a rejected compilation.
func (m *Manager) RecordCompileError(kind string) {
	if m.enabled {
		m.compileErrors.WithLabelValues(kind).Inc()
	}
}

// CollectSystem samples runtime stats every refresh interval until ctx is
// done.
func (m *Manager) CollectSystem(ctx context.Context) error {
	if !m.enabled {
		return ErrDisabled
	}
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		m.sampleSystem()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) sampleSystem() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.systemMemory.Set(float64(stats.HeapInuse))
	m.systemGoroutines.Set(float64(runtime.NumGoroutine()))
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// Package-level recorders use the global manager.

// RecordCompilation records a successful compilation.
func RecordCompilation(latency time.Duration, entities map[string]int) {
	globalManager.RecordCompilation(latency, entities)
}

// RecordCompileError counts a rejected compilation by kind.
func RecordCompileError(kind string) { globalManager.RecordCompileError(kind) }

// RecordJobDuplicate counts a compile job dropped by the deduper.
func RecordJobDuplicate() { globalManager.jobsDuplicate.Inc() }

// RecordStandingsUpdate counts a stored result.
func RecordStandingsUpdate() { globalManager.standingsUpdates.Inc() }

// UpdateLeaguesTracked sets the number of leagues with standings.
func UpdateLeaguesTracked(n int) { globalManager.leaguesTracked.Set(float64(n)) }

// RecordStandingsQueryLatency records a standings lookup.
func RecordStandingsQueryLatency(d time.Duration) { globalManager.standingsQueryLat.Observe(ms(d)) }

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a job the queue refused.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueWait records how long a job waited before a worker took it.
func RecordQueueWait(d time.Duration) { globalManager.queueWait.Observe(ms(d)) }

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// AddWorkerActive moves the busy-worker gauge by delta.
func AddWorkerActive(delta int) { globalManager.workerActive.Add(float64(delta)) }

// RecordWorkerProcessingLatency records one job's processing time.
func RecordWorkerProcessingLatency(d time.Duration) { globalManager.workerLatency.Observe(ms(d)) }

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms(d))
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// CollectSystem samples runtime stats into the global manager until ctx
// is done.
func CollectSystem(ctx context.Context) error { return globalManager.CollectSystem(ctx) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
