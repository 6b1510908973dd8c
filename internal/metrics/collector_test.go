package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordInvocation(t *testing.T) {
	c := NewCollector("test")

	c.RecordInvocation("GET_accounts_id", 200, 10*time.Millisecond)
	c.RecordInvocation("GET_accounts_id", 200, 20*time.Millisecond)
	c.RecordInvocation("GET_accounts_id", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.invocationsTotal.WithLabelValues("GET_accounts_id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.invocationsTotal.WithLabelValues("GET_accounts_id", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.invocationDuration))
}

func TestCollector_RecordIngestion(t *testing.T) {
	c := NewCollector("test")

	c.RecordIngestion(nil, 5)
	c.RecordIngestion(errors.New("bad document"), 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ingestionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ingestionsTotal.WithLabelValues("error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.toolsRegistered))
}

func TestCollector_RecordResolution(t *testing.T) {
	c := NewCollector("test")
	c.RecordResolution("ok", time.Millisecond)
	c.RecordResolution("no_match", time.Millisecond)
	c.RecordResolution("ok", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.resolutionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resolutionsTotal.WithLabelValues("no_match")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("auto_api")
	c.RecordHTTPRequest("GET", "/healthz", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auto_api_http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordInvocation("x", 200, time.Second)
		c.RecordResolution("ok", time.Second)
		c.RecordIngestion(nil, 1)
		c.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewFromConfig(t *testing.T) {
	assert.Nil(t, NewFromConfig(config.MetricsConfig{Enabled: false}))
	assert.NotNil(t, NewFromConfig(config.MetricsConfig{Enabled: true, Namespace: "x"}))
}
