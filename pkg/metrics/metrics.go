// Package metrics exposes Prometheus instrumentation for scrub and dump runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for pqctscrub
type Metrics struct {
	registry *prometheus.Registry

	// File processing metrics
	filesTotal   *prometheus.CounterVec
	fileDuration *prometheus.HistogramVec
	bytesWritten prometheus.Counter

	// Batch metrics
	batchesTotal  *prometheus.CounterVec
	batchFiles    prometheus.Histogram
	filesInFlight prometheus.Gauge

	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics on a private registry, so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pqctscrub_files_total",
				Help: "Total number of files processed, by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),

		fileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pqctscrub_file_duration_seconds",
				Help:    "Time spent processing one file",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		bytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pqctscrub_bytes_written_total",
				Help: "Total bytes of scrubbed output written",
			},
		),

		batchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pqctscrub_batches_total",
				Help: "Total number of batches run to completion",
			},
			[]string{"mode"},
		),

		batchFiles: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pqctscrub_batch_files",
				Help:    "Number of files per batch",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		filesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pqctscrub_batch_files_remaining",
				Help: "Files left in the batch currently running",
			},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pqctscrub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pqctscrub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

// RecordFile records the outcome of processing one file
func (m *Metrics) RecordFile(mode, outcome string, written int64, duration time.Duration) {
	m.filesTotal.WithLabelValues(mode, outcome).Inc()
	m.fileDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if written > 0 {
		m.bytesWritten.Add(float64(written))
	}
}

// StartBatch records the size of a new batch
func (m *Metrics) StartBatch(files int) {
	m.batchFiles.Observe(float64(files))
	m.filesInFlight.Set(float64(files))
}

// FileDone marks one file of the running batch as processed
func (m *Metrics) FileDone() {
	m.filesInFlight.Dec()
}

// FinishBatch records a batch that ran to completion
func (m *Metrics) FinishBatch(mode string) {
	m.batchesTotal.WithLabelValues(mode).Inc()
	m.filesInFlight.Set(0)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text format read by the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
