package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// vulnerability index service.
type Metrics struct {
	CalculationsTotal   *prometheus.CounterVec // labels: mode={weighted,unweighted}
	CalculationErrors   *prometheus.CounterVec // labels: reason={weights,degenerate,missing_value,internal}
	CalculationDuration prometheus.Histogram

	// Result cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	// Dataset metrics.
	DatasetLoaded   prometheus.Gauge
	DatasetCommunes prometheus.Gauge
	DatasetDropped  prometheus.Gauge

	// Snapshot publishing metrics.
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
	PublishEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commune_vi",
			Name:      "calculations_total",
			Help:      "Completed index calculations by weighting mode.",
		}, []string{"mode"}),
		CalculationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commune_vi",
			Name:      "calculation_errors_total",
			Help:      "Failed index calculations by failure reason.",
		}, []string{"reason"}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "commune_vi",
			Name:      "calculation_duration_seconds",
			Help:      "Duration of a full z-score and aggregation pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commune_vi",
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache lookups by result.",
		}, []string{"result"}),
		DatasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "commune_vi",
			Name:      "dataset_loaded",
			Help:      "1 when the commune dataset has been loaded, 0 otherwise.",
		}),
		DatasetCommunes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "commune_vi",
			Name:      "dataset_communes",
			Help:      "Number of communes in the active scoring set.",
		}),
		DatasetDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "commune_vi",
			Name:      "dataset_dropped_communes",
			Help:      "Communes discarded at load time for incomplete indicator values.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commune_vi",
			Name:      "snapshots_published_total",
			Help:      "Score snapshots written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commune_vi",
			Name:      "publish_errors_total",
			Help:      "Snapshot publish failures.",
		}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "commune_vi",
			Name:      "publish_enabled",
			Help:      "1 when snapshot publishing is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.CalculationsTotal,
		m.CalculationErrors,
		m.CalculationDuration,
		m.CacheLookups,
		m.DatasetLoaded,
		m.DatasetCommunes,
		m.DatasetDropped,
		m.SnapshotsPublished,
		m.PublishErrors,
		m.PublishEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CalculationsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "commune_vi", Name: "calculations_total"}, []string{"mode"}),
		CalculationErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "commune_vi", Name: "calculation_errors_total"}, []string{"reason"}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "commune_vi", Name: "calculation_duration_seconds"}),
		CacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "commune_vi", Name: "cache_lookups_total"}, []string{"result"}),
		DatasetLoaded:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "commune_vi", Name: "dataset_loaded"}),
		DatasetCommunes:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "commune_vi", Name: "dataset_communes"}),
		DatasetDropped:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "commune_vi", Name: "dataset_dropped_communes"}),
		SnapshotsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "commune_vi", Name: "snapshots_published_total"}),
		PublishErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "commune_vi", Name: "publish_errors_total"}),
		PublishEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "commune_vi", Name: "publish_enabled"}),
	}
}
