package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// load-and-analyze workflow.
type Metrics struct {
	RowsLoaded   prometheus.Counter
	LoadDuration prometheus.Histogram
	DatasetReady prometheus.Gauge

	// Aggregation query metrics.
	QueriesTotal  *prometheus.CounterVec   // labels: kind, outcome={ok,error}
	QueryDuration *prometheus.HistogramVec // labels: kind
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsLoaded,
		m.LoadDuration,
		m.DatasetReady,
		m.QueriesTotal,
		m.QueryDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accident_risk",
			Name:      "rows_loaded_total",
			Help:      "Total source rows ingested into the query engine.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accident_risk",
			Name:      "load_duration_seconds",
			Help:      "Duration of CSV ingestion into the query engine.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		DatasetReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "accident_risk",
			Name:      "dataset_ready",
			Help:      "1 when the dataset is loaded and queryable, 0 otherwise.",
		}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_risk",
			Name:      "queries_total",
			Help:      "Aggregation queries by analysis kind and outcome.",
		}, []string{"kind", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "accident_risk",
			Name:      "query_duration_seconds",
			Help:      "Aggregation query duration by analysis kind.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
	}
}
