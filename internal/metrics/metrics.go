// Package metrics counts discovery and download activity with Prometheus
// collectors held in a private registry. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Probe outcomes.
const (
	ProbeOK     = "ok"
	ProbeFailed = "failed"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	candidatesTotal *prometheus.CounterVec
	assetsTotal     *prometheus.CounterVec
	probesTotal     *prometheus.CounterVec
	probeDuration   prometheus.Histogram
	previewsTotal   *prometheus.CounterVec
	downloadsTotal  *prometheus.CounterVec
	downloadBytes   prometheus.Histogram
}

// New creates and registers all collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs by terminal status",
		},
		[]string{"status"},
	)

	m.candidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate references by extraction strategy",
		},
		[]string{"source"},
	)

	m.assetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_total",
			Help:      "Deduplicated asset descriptors by category",
		},
		[]string{"category"},
	)

	m.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Metadata probes by outcome",
		},
		[]string{"outcome"},
	)

	m.probeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Metadata probe latency",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.previewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_total",
			Help:      "Image preview attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Asset downloads by final status",
		},
		[]string{"status"},
	)

	// 1KB .. 1GB
	m.downloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_size_bytes",
			Help:      "Bytes stored per completed download",
			Buckets:   prometheus.ExponentialBuckets(1024, 10, 7),
		},
	)

	m.registry.MustRegister(
		m.runsTotal,
		m.candidatesTotal,
		m.assetsTotal,
		m.probesTotal,
		m.probeDuration,
		m.previewsTotal,
		m.downloadsTotal,
		m.downloadBytes,
	)

	return m
}

// Registry exposes the private registry for dumping or scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordRun(status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordCandidates(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.candidatesTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) RecordAsset(category string) {
	if m == nil {
		return
	}
	m.assetsTotal.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordProbe(ok bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := ProbeFailed
	if ok {
		outcome = ProbeOK
	}
	m.probesTotal.WithLabelValues(outcome).Inc()
	m.probeDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordPreview(ok bool) {
	if m == nil {
		return
	}
	outcome := ProbeFailed
	if ok {
		outcome = ProbeOK
	}
	m.previewsTotal.WithLabelValues(outcome).Inc()
}

// RecordDownload counts a finished download; bytes is observed only for completed ones.
func (m *Metrics) RecordDownload(status string, bytes int64) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		m.downloadBytes.Observe(float64(bytes))
	}
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
