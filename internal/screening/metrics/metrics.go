package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for list refreshes and screening queries.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Refresh attempts by source and outcome ("ok", "fetch", "parse", "feed_lookup")
	RefreshTotal *prometheus.CounterVec

	// Duration of a full fetch+build cycle by source
	RefreshDuration *prometheus.HistogramVec

	// Candidates in the live snapshot by source
	SnapshotCandidates *prometheus.GaugeVec

	// Unix time of the live snapshot by source
	SnapshotLoadedAt *prometheus.GaugeVec

	// Per-source failures during query fan-out
	SourceFailures *prometheus.CounterVec

	// End-to-end screening latency
	ScreenLatency prometheus.Histogram

	// Hits returned per query
	ScreenHits prometheus.Histogram
}

// New creates the screening metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RefreshTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_refresh_total",
			Help: "Dataset refresh attempts by source and outcome",
		}, []string{"source", "outcome"}),

		RefreshDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_refresh_duration_seconds",
			Help:    "Duration of dataset fetch and build cycles by source",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),

		SnapshotCandidates: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "screener_snapshot_candidates",
			Help: "Number of matchable candidates in the live snapshot",
		}, []string{"source"}),

		SnapshotLoadedAt: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "screener_snapshot_loaded_timestamp_seconds",
			Help: "Unix time at which the live snapshot was loaded",
		}, []string{"source"}),

		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_source_failures_total",
			Help: "Sources that failed to contribute to a screening query",
		}, []string{"source"}),

		ScreenLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_screen_duration_seconds",
			Help:    "Duration of screening queries across all sources",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		ScreenHits: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_screen_hits",
			Help:    "Number of hits returned per screening query",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
		}),
	}
}

// ObserveRefresh records one refresh cycle.
func (m *Metrics) ObserveRefresh(source, outcome string, d time.Duration) {
	if m != nil {
		m.RefreshTotal.WithLabelValues(source, outcome).Inc()
		m.RefreshDuration.WithLabelValues(source).Observe(d.Seconds())
	}
}

// SetSnapshot records the size and load time of a newly published snapshot.
func (m *Metrics) SetSnapshot(source string, candidates int, loadedAt time.Time) {
	if m != nil {
		m.SnapshotCandidates.WithLabelValues(source).Set(float64(candidates))
		m.SnapshotLoadedAt.WithLabelValues(source).Set(float64(loadedAt.Unix()))
	}
}

// IncrementSourceFailure records a source dropping out of a query.
func (m *Metrics) IncrementSourceFailure(source string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(source).Inc()
	}
}

// ObserveScreen records a completed screening query.
func (m *Metrics) ObserveScreen(d time.Duration, hits int) {
	if m != nil {
		m.ScreenLatency.Observe(d.Seconds())
		m.ScreenHits.Observe(float64(hits))
	}
}
