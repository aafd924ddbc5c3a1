package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consulta_classifications_total",
			Help: "Total number of classified analytics questions.",
		},
		[]string{"complexity", "route"},
	)
	unsafeQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consulta_unsafe_queries_total",
			Help: "Total number of generated queries rejected by the sanitizer.",
		},
	)
	analyticsQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consulta_analytics_queries_total",
			Help: "Total number of analytics pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)
	warehouseQueryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consulta_warehouse_query_duration_ms",
			Help:    "Warehouse query latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)
	completionDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consulta_completion_duration_ms",
			Help:    "Text-completion call latency in milliseconds by purpose.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 20000, 30000},
		},
		[]string{"purpose"},
	)
	schemaRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consulta_schema_refresh_total",
			Help: "Total number of schema cache refreshes by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		classificationsTotal,
		unsafeQueriesTotal,
		analyticsQueriesTotal,
		warehouseQueryDurationMs,
		completionDurationMs,
		schemaRefreshTotal,
	)
}

func ObserveClassification(complexity, route string) {
	classificationsTotal.WithLabelValues(complexity, route).Inc()
}

func IncrementUnsafeQuery() {
	unsafeQueriesTotal.Inc()
}

func ObserveAnalyticsQuery(outcome string) {
	analyticsQueriesTotal.WithLabelValues(outcome).Inc()
}

func ObserveWarehouseQuery(elapsed time.Duration) {
	warehouseQueryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveCompletion(purpose string, elapsed time.Duration) {
	completionDurationMs.WithLabelValues(purpose).Observe(float64(elapsed.Milliseconds()))
}

func ObserveSchemaRefresh(result string) {
	schemaRefreshTotal.WithLabelValues(result).Inc()
}
