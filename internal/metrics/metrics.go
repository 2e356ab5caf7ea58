// Package metrics exposes Prometheus metrics for the audit pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all service metrics.
	MetricsNamespace = "siteaudit"
)

// Metrics holds all Prometheus metrics for the audit pipeline.
type Metrics struct {
	PagesFetchedTotal  prometheus.Counter
	PageFetchErrors    prometheus.Counter
	JobsTotal          *prometheus.CounterVec
	JobDurationSeconds prometheus.Histogram
	JobsRunning        prometheus.Gauge
}

// New creates and registers the pipeline metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		PagesFetchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "pages_fetched_total",
			Help:      "Total number of pages fetched across all crawls",
		}),
		PageFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "page_fetch_errors_total",
			Help:      "Total number of transport-level page fetch failures",
		}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "jobs_total",
			Help:      "Total number of audit jobs by outcome",
		}, []string{"outcome"}),
		JobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of audit jobs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		JobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "jobs_running",
			Help:      "Number of audit jobs currently processing",
		}),
	}
}

// NewNop creates metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
