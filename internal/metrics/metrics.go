// Package metrics exposes statement counters and latencies through
// prometheus. Each Metrics owns its registry so several databases in one
// process do not collide.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const StatusOK = "ok"

type Metrics struct {
	Registry  *prometheus.Registry
	namespace string

	statements  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rows        *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "novadb"
	}
	m := &Metrics{
		Registry:  prometheus.NewRegistry(),
		namespace: namespace,
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statements_total",
				Help:      "Total number of executed statements",
			},
			[]string{"statement", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "statement_duration_seconds",
				Help:      "Duration of statements in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"statement"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Rows returned by queries or affected by writes",
			},
			[]string{"statement"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_hits_total",
			Help:      "SELECT statements answered from the result cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_misses_total",
			Help:      "SELECT statements that missed the result cache",
		}),
	}

	m.Registry.MustRegister(m.statements, m.duration, m.rows, m.cacheHits, m.cacheMisses)
	return m
}

// ObserveStatement records one finished statement. status is StatusOK or the
// error kind name.
func (m *Metrics) ObserveStatement(statement, status string, rows int64, d time.Duration) {
	m.statements.WithLabelValues(statement, status).Inc()
	m.duration.WithLabelValues(statement).Observe(d.Seconds())
	if status == StatusOK && rows > 0 {
		m.rows.WithLabelValues(statement).Add(float64(rows))
	}
}

func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

// ObserveCacheHitRate exports hitRate as a gauge read at scrape time. Only
// the first registration on a Metrics takes effect.
func (m *Metrics) ObserveCacheHitRate(hitRate func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "result_cache_hit_ratio",
		Help:      "Hit ratio of the SELECT result cache",
	}, hitRate)
	_ = m.Registry.Register(g)
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
