package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayMetrics_Operation(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.Operation("launch", true)
	m.Operation("launch", false)
	m.Operation("launch", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("launch", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("launch", "failure")))
}

func TestGatewayMetrics_NilIsNoop(t *testing.T) {
	var m *GatewayMetrics
	assert.NotPanics(t, func() {
		m.Operation("launch", true)
		m.Listed(3)
		m.Staged()
		m.Removed("sweep", 1)
		m.Restarted()
	})
}

func TestGatewayMetrics_RemovedSkipsZero(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.Removed("sweep", 0)
	m.Removed("sweep", 2)
	m.Listed(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ArtifactsRemoved.WithLabelValues("sweep")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.AppsListed))
}

func TestHTTPMetrics_MiddlewareRecordsRoute(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/apps", func(c echo.Context) error { return c.JSON(http.StatusOK, []string{}) })
	e.GET("/api/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/apps", "/api/apps", "/api/health"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/apps", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal), "health probes are not recorded")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}
