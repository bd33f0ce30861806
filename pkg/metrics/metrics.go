// Package metrics counts pages, posts and downloads of a run and can export them
// in the Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "boorudl"

// Metrics holds the counters of one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pagesTotal       prometheus.Counter
	postsTotal       prometheus.Counter
	downloadsTotal   *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	downloadDuration prometheus.Histogram
	lastRunTimestamp prometheus.Gauge
}

// New creates Metrics registered on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		pagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Search result pages fetched",
		}),

		postsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Posts returned by the search API",
		}),

		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "File downloads by result",
		}, []string{"result"}), // "success" / "failure"

		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes written to the output directory",
		}),

		downloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Duration of a single file download",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the metrics were last exported",
		}),
	}

	m.registry.MustRegister(
		m.pagesTotal, m.postsTotal,
		m.downloadsTotal, m.downloadBytes,
		m.downloadDuration, m.lastRunTimestamp,
	)

	return m
}

// ObservePage records one fetched search page with the given number of posts
func (m *Metrics) ObservePage(posts int) {
	if m == nil {
		return
	}
	m.pagesTotal.Inc()
	m.postsTotal.Add(float64(posts))
}

// ObserveDownload records the outcome of one file download
func (m *Metrics) ObserveDownload(success bool, size int64, d time.Duration) {
	if m == nil {
		return
	}
	m.downloadDuration.Observe(d.Seconds())
	if !success {
		m.downloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.downloadsTotal.WithLabelValues("success").Inc()
	m.downloadBytes.Add(float64(size))
}

// Registry returns the registry holding all run metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	m.lastRunTimestamp.Set(float64(time.Now().Unix()))
	return prometheus.WriteToTextfile(path, m.registry)
}
