package tilekit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a MetricsCollector backed by Prometheus counters and
// histograms. Register it with a prometheus.Registerer to expose it.
type PrometheusMetrics struct {
	ops       *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	tiles     *prometheus.CounterVec
	snapBytes prometheus.Counter
}

// NewPrometheusMetrics creates the collector under namespace.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	return &PrometheusMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of tile set operations.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Number of failed tile set operations.",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of ingest, snapshot and restore operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_processed_total",
			Help:      "Number of tiles ingested, restored or cleared.",
		}, []string{"op"}),
		snapBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes_total",
			Help:      "Bytes written to snapshots.",
		}),
	}
}

func (p *PrometheusMetrics) observe(op string, duration time.Duration, err error) bool {
	p.ops.WithLabelValues(op).Inc()
	p.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		p.errors.WithLabelValues(op).Inc()
		return false
	}
	return true
}

// RecordIngest implements MetricsCollector.
func (p *PrometheusMetrics) RecordIngest(tiles int, duration time.Duration, err error) {
	if p.observe("ingest", duration, err) {
		p.tiles.WithLabelValues("ingest").Add(float64(tiles))
	}
}

// RecordSnapshot implements MetricsCollector.
func (p *PrometheusMetrics) RecordSnapshot(bytes int64, duration time.Duration, err error) {
	if p.observe("snapshot", duration, err) {
		p.snapBytes.Add(float64(bytes))
	}
}

// RecordRestore implements MetricsCollector.
func (p *PrometheusMetrics) RecordRestore(tiles int, duration time.Duration, err error) {
	if p.observe("restore", duration, err) {
		p.tiles.WithLabelValues("restore").Add(float64(tiles))
	}
}

// RecordClear implements MetricsCollector.
func (p *PrometheusMetrics) RecordClear(tiles int) {
	p.ops.WithLabelValues("clear").Inc()
	p.tiles.WithLabelValues("clear").Add(float64(tiles))
}

// Describe implements prometheus.Collector.
func (p *PrometheusMetrics) Describe(ch chan<- *prometheus.Desc) {
	p.ops.Describe(ch)
	p.errors.Describe(ch)
	p.duration.Describe(ch)
	p.tiles.Describe(ch)
	p.snapBytes.Describe(ch)
}

// Collect implements prometheus.Collector.
func (p *PrometheusMetrics) Collect(ch chan<- prometheus.Metric) {
	p.ops.Collect(ch)
	p.errors.Collect(ch)
	p.duration.Collect(ch)
	p.tiles.Collect(ch)
	p.snapBytes.Collect(ch)
}
