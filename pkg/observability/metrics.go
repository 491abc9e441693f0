package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	queryDuration   *prometheus.HistogramVec
	fanOutWidth     prometheus.Histogram
	storeRetries    *prometheus.CounterVec
	cursorsRejected prometheus.Counter
}

// NewMetrics creates and registers the engine's collectors on a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docstore",
			Name:      "query_duration_seconds",
			Help:      "Latency of store queries by operation and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		fanOutWidth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docstore",
			Name:      "fanout_shards",
			Help:      "Number of live shards queried per fan-out.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "store_retries_total",
			Help:      "Retried store calls by operation.",
		}, []string{"operation"}),
		cursorsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "cursors_rejected_total",
			Help:      "Cursors rejected as malformed or mismatched.",
		}),
	}

	registry.MustRegister(m.queryDuration, m.fanOutWidth, m.storeRetries, m.cursorsRejected)
	return m
}

// ObserveQuery records one store query's latency and outcome.
func (m *Metrics) ObserveQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.queryDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// ObserveFanOut records the live shard count of one fan-out query.
func (m *Metrics) ObserveFanOut(shards int) {
	m.fanOutWidth.Observe(float64(shards))
}

// IncRetry records one retried store call.
func (m *Metrics) IncRetry(operation string) {
	m.storeRetries.WithLabelValues(operation).Inc()
}

// IncCursorRejected records one rejected cursor.
func (m *Metrics) IncCursorRejected() {
	m.cursorsRejected.Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
