// Package prometheus implements the metrics interfaces of the offline cache
// on Prometheus collectors. Importing it (usually blank) registers its
// constructors with pkg/metrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/metrics"
)

func init() {
	metrics.RegisterCoordinatorMetricsConstructor(NewCoordinatorMetrics)
}

// coordinatorMetrics is the Prometheus implementation of coordinator.Metrics.
type coordinatorMetrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	declined      prometheus.Counter
	phases        *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	reconciled    *prometheus.CounterVec
	downloaded    prometheus.Counter
}

// NewCoordinatorMetrics creates Prometheus-backed coordinator metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCoordinatorMetrics() coordinator.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newCoordinatorMetrics(metrics.GetRegistry())
}

func newCoordinatorMetrics(reg prometheus.Registerer) *coordinatorMetrics {
	return &coordinatorMetrics{
		fetches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offlinecache_fetch_total",
				Help: "Total number of handled fetches by outcome",
			},
			[]string{"outcome"}, // "hit", "network", "fallback", "error"
		),
		fetchDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offlinecache_fetch_duration_milliseconds",
				Help:    "Duration of handled fetches in milliseconds",
				Buckets: []float64{0.5, 1, 5, 10, 50, 100, 250, 500, 1000, 5000},
			},
			[]string{"outcome"},
		),
		declined: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offlinecache_fetch_declined_total",
				Help: "Total number of fetches passed through to the origin",
			},
		),
		phases: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offlinecache_phase_total",
				Help: "Total number of lifecycle phases by phase and result",
			},
			[]string{"phase", "success"},
		),
		phaseDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offlinecache_phase_duration_seconds",
				Help:    "Duration of lifecycle phases in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"phase"},
		),
		reconciled: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "offlinecache_reconciled_entries_total",
				Help: "Content entries by activation outcome",
			},
			[]string{"action"}, // "retained", "evicted", "promoted"
		),
		downloaded: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "offlinecache_offline_downloaded_total",
				Help: "Total number of resources added by offline downloads",
			},
		),
	}
}

func (m *coordinatorMetrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.WithLabelValues(outcome).Observe(float64(d.Microseconds()) / 1000)
}

func (m *coordinatorMetrics) ObserveDeclined() {
	if m == nil {
		return
	}
	m.declined.Inc()
}

func (m *coordinatorMetrics) ObservePhase(phase string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.phases.WithLabelValues(phase, strconv.FormatBool(success)).Inc()
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *coordinatorMetrics) ObserveReconcile(retained, evicted, promoted int) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues("retained").Add(float64(retained))
	m.reconciled.WithLabelValues("evicted").Add(float64(evicted))
	m.reconciled.WithLabelValues("promoted").Add(float64(promoted))
}

func (m *coordinatorMetrics) ObserveDownloaded(count int) {
	if m == nil {
		return
	}
	m.downloaded.Add(float64(count))
}
