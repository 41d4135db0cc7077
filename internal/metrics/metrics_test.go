package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SlotCounters(t *testing.T) {
	m := New()
	m.ObserveLoad(3, nil)
	m.ObserveSave(4, nil)
	m.ObserveSave(4, errors.New("disk full"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("error")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.records))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveUnlock("granted")
	m.ObserveRequest("GET", "/api/projects", 200, 5*time.Millisecond)
	require.NoError(t, m.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "procdash_test_gauge",
		Help: "test",
	}, func() float64 { return 7 })))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	require.Contains(t, string(body), `procdash_unlock_attempts_total{result="granted"} 1`)
	require.Contains(t, string(body), `procdash_http_requests_total{method="GET",route="/api/projects",status="200"} 1`)
	require.Contains(t, string(body), "procdash_test_gauge 7")
}
