package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the prometheus collectors for the update cycles and the
// source adapters. A single instance is shared process-wide.
type Metrics struct {
	CycleRuns       *prometheus.CounterVec
	CycleDuration   *prometheus.HistogramVec
	FetchErrors     *prometheus.CounterVec
	SymbolsSkipped  *prometheus.CounterVec
	SnapshotCoins   prometheus.Gauge
	PublishRejected prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CycleRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "analysis_cycle_runs_total",
			Help: "Update cycle completions by cycle type and result.",
		}, []string{"cycle", "result"}),
		CycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analysis_cycle_duration_seconds",
			Help:    "Wall-clock duration of update cycles.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"cycle"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "source_fetch_errors_total",
			Help: "External data source fetch failures by source.",
		}, []string{"source"}),
		SymbolsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "analysis_symbols_skipped_total",
			Help: "Symbols skipped during a cycle by cycle type.",
		}, []string{"cycle"}),
		SnapshotCoins: factory.NewGauge(prometheus.GaugeOpts{
			Name: "analysis_snapshot_coins",
			Help: "Coins in the currently published snapshot.",
		}),
		PublishRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "analysis_publish_rejected_total",
			Help: "Snapshot publishes rejected by the ordering guard.",
		}),
	}
}
