package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveStatement(t *testing.T) {
	m := New("test")

	m.ObserveStatement("select", StatusOK, 3, time.Millisecond)
	m.ObserveStatement("select", StatusOK, 2, time.Millisecond)
	m.ObserveStatement("insert", "PrimaryKeyViolationError", 0, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.statements.WithLabelValues("select", StatusOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues("insert", "PrimaryKeyViolationError")))
	require.Equal(t, 5.0, testutil.ToFloat64(m.rows.WithLabelValues("select")))
	require.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestMetrics_CacheCounters(t *testing.T) {
	m := New("")
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	require.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	require.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("novadb")
	m.ObserveStatement("create", StatusOK, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `novadb_statements_total{statement="create",status="ok"} 1`)
}

func TestMetrics_CacheHitRateGauge(t *testing.T) {
	m := New("novadb")
	rate := 0.25
	m.ObserveCacheHitRate(func() float64 { return rate })
	m.ObserveCacheHitRate(func() float64 { return 1 })

	rate = 0.75
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), "novadb_result_cache_hit_ratio 0.75")
}
