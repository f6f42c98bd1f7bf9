// Package metrics registers the Prometheus collectors shared across the
// tracker and exposes small helpers so callers never touch collector
// plumbing directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skytrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skytrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	tickDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skytrack_tick_duration_seconds",
			Help:    "Orchestrator tick duration in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	objectsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skytrack_objects_tracked",
			Help: "Number of object records in the current store.",
		},
	)

	rowsPublished = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skytrack_rows_published",
			Help: "Number of rows in the last published snapshot.",
		},
	)

	snapshotRevision = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skytrack_snapshot_revision",
			Help: "Monotonic revision counter of the published snapshot.",
		},
	)

	propagationTransients = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skytrack_propagation_transients_total",
			Help: "Per-tick propagation failures (object dropped for that tick).",
		},
	)

	backgroundJobs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skytrack_background_jobs_total",
			Help: "Background pass/ground-track jobs submitted.",
		},
	)

	workerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skytrack_worker_queue_depth",
			Help: "Tasks waiting in the worker pool queue.",
		},
	)

	adapterConnected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skytrack_adapter_connected",
			Help: "Effector adapter connectivity (1 connected, 0 not).",
		},
		[]string{"adapter"},
	)

	reloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skytrack_config_reloads_total",
			Help: "Hot reloads applied at the tick gate.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		tickDurationSeconds,
		objectsTracked,
		rowsPublished,
		snapshotRevision,
		propagationTransients,
		backgroundJobs,
		workerQueueDepth,
		adapterConnected,
		reloadsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTick records one orchestrator tick duration.
func ObserveTick(d time.Duration) { tickDurationSeconds.Observe(d.Seconds()) }

// SetObjectsTracked sets the current record count.
func SetObjectsTracked(n int) { objectsTracked.Set(float64(n)) }

// SetRowsPublished sets the row count of the last snapshot.
func SetRowsPublished(n int) { rowsPublished.Set(float64(n)) }

// SetSnapshotRevision publishes the snapshot revision counter.
func SetSnapshotRevision(rev uint64) { snapshotRevision.Set(float64(rev)) }

// IncPropagationTransient counts a per-tick propagation miss.
func IncPropagationTransient() { propagationTransients.Inc() }

// IncBackgroundJobs counts a submitted background job.
func IncBackgroundJobs() { backgroundJobs.Inc() }

// SetWorkerQueueDepth sets the pending-task gauge.
func SetWorkerQueueDepth(n int) { workerQueueDepth.Set(float64(n)) }

// SetAdapterConnected flags an effector adapter's connectivity.
func SetAdapterConnected(adapter string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	adapterConnected.WithLabelValues(adapter).Set(v)
}

// IncReloads counts an applied hot reload.
func IncReloads() { reloadsTotal.Inc() }

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
