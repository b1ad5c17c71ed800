// Package observability provides the Prometheus metrics of the dashboard service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace is the namespace for all service metrics.
const MetricsNamespace = "menulens"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Live session metrics
	EventsAppliedTotal  *prometheus.CounterVec
	EventsSkippedTotal  *prometheus.CounterVec
	SessionResyncsTotal *prometheus.CounterVec
	SessionState        *prometheus.GaugeVec

	// Snapshot and trend metrics
	SnapshotFetchSeconds prometheus.Histogram
	TrendRefreshTotal    *prometheus.CounterVec

	// Ingestion metrics
	EventsIngestedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initSessionMetrics(factory)
	m.initQueryMetrics(factory)
	m.initIngestionMetrics(factory)

	return m
}

func (m *Metrics) initSessionMetrics(factory promauto.Factory) {
	m.EventsAppliedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_applied_total",
			Help:      "Live events folded into an aggregator",
		},
		[]string{"window"},
	)

	m.EventsSkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_skipped_total",
			Help:      "Live events not folded, by reason",
		},
		[]string{"window", "reason"},
	)

	m.SessionResyncsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "session_resyncs_total",
			Help:      "Aggregator re-initializations from a fresh snapshot, by reason",
		},
		[]string{"window", "reason"},
	)

	m.SessionState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "session_state",
			Help:      "Current live session state (0 uninitialized, 1 syncing, 2 live, 3 disconnected)",
		},
		[]string{"window"},
	)
}

func (m *Metrics) initQueryMetrics(factory promauto.Factory) {
	m.SnapshotFetchSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "snapshot_fetch_seconds",
			Help:      "Duration of window snapshot fetches in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
	)

	m.TrendRefreshTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "trend_refresh_total",
			Help:      "Trend recomputations, by result",
		},
		[]string{"result"},
	)
}

func (m *Metrics) initIngestionMetrics(factory promauto.Factory) {
	m.EventsIngestedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_ingested_total",
			Help:      "Ingestion requests, by result",
		},
		[]string{"result"},
	)
}
