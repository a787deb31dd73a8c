package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("seo_report")

	m.ObserveUpstreamCall("/v3/backlinks/summary/live", "success", 120*time.Millisecond)
	m.ObserveUpstreamCall("/v3/backlinks/summary/live", "failure", time.Second)
	m.IncReport("quick", "ok")
	m.IncSection("overview", "failed")
	m.IncRateLimitRejection()
	m.IncUsageDropped()
	m.IncUsageDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCallsTotal.WithLabelValues("/v3/backlinks/summary/live", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues("quick", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SectionsTotal.WithLabelValues("overview", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitRejections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UsageEventsDropped))
}

func TestMetrics_HandlerExposesRegistry(t *testing.T) {
	m := New("seo_report")
	m.IncReport("detailed", "partial")
	m.ObserveHTTPRequest(http.MethodPost, "/api/report", "200", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `seo_report_reports_total{outcome="partial",tier="detailed"} 1`)
	assert.Contains(t, string(body), `seo_report_http_requests_total{method="POST",route="/api/report",status="200"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New("seo_report")
		New("seo_report")
	})
}
