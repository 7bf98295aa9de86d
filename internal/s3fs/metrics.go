package s3fs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the Prometheus instrumentation for a Backend: request outcomes,
// transferred bytes, and multipart lifecycle counters, plus a point-in-time
// sample of the buffer pool's hit/miss counts.
type Metrics struct {
	requests      *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	bytesUploaded prometheus.Counter
	bytesDownloaded prometheus.Counter
	retries       prometheus.Counter
	multipartUploads  prometheus.Counter
	multipartParts    prometheus.Counter
	multipartAborts   prometheus.Counter
	bufferPoolHits    prometheus.Gauge
	bufferPoolMisses  prometheus.Gauge
}

// NewMetrics constructs a Metrics instance and registers its collectors with
// registry. A nil registry is accepted and produces a no-op-safe Metrics
// backed by a private registry, so callers that don't care about exporting
// metrics don't need to thread one through.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iofs",
			Subsystem: "s3",
			Name:      "requests_total",
			Help:      "Total S3 REST requests by operation and outcome.",
		}, []string{"operation", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "iofs",
			Subsystem: "s3",
			Name:      "request_duration_seconds",
			Help:      "S3 REST request latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"operation"}),
		bytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "bytes_uploaded_total",
			Help: "Total bytes sent via PutObject and UploadPart.",
		}),
		bytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "bytes_downloaded_total",
			Help: "Total bytes received via GetObject.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "retries_total",
			Help: "Total retry attempts across all operations.",
		}),
		multipartUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "multipart_uploads_total",
			Help: "Total multipart uploads initiated.",
		}),
		multipartParts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "multipart_parts_total",
			Help: "Total parts uploaded across all multipart uploads.",
		}),
		multipartAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "multipart_aborts_total",
			Help: "Total multipart uploads aborted after a part failure.",
		}),
		bufferPoolHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "buffer_pool_hits",
			Help: "Cumulative part buffers served from the pool instead of freshly allocated.",
		}),
		bufferPoolMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "iofs", Subsystem: "s3", Name: "buffer_pool_misses",
			Help: "Cumulative part buffers freshly allocated because the pool was empty.",
		}),
	}

	registry.MustRegister(
		m.requests, m.requestLatency, m.bytesUploaded, m.bytesDownloaded,
		m.retries, m.multipartUploads, m.multipartParts, m.multipartAborts,
		m.bufferPoolHits, m.bufferPoolMisses,
	)

	return m
}

func (m *Metrics) observeRequest(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.requests.WithLabelValues(operation, status).Inc()
	m.requestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordRetry() {
	m.retries.Inc()
}

func (m *Metrics) recordUpload(n int) {
	m.bytesUploaded.Add(float64(n))
}

func (m *Metrics) recordDownload(n int) {
	m.bytesDownloaded.Add(float64(n))
}

func (m *Metrics) recordMultipartStart() {
	m.multipartUploads.Inc()
}

func (m *Metrics) recordMultipartPart() {
	m.multipartParts.Inc()
}

func (m *Metrics) recordMultipartAbort() {
	m.multipartAborts.Inc()
}

func (m *Metrics) sampleBufferPool(pool *BufferPool) {
	hits, misses := pool.Stats()
	m.bufferPoolHits.Set(float64(hits))
	m.bufferPoolMisses.Set(float64(misses))
}
