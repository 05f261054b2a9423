package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountAndExpose(t *testing.T) {
	m := New()

	m.RequestsTotal.WithLabelValues("GET", "/api/tasks", "200").Inc()
	m.RequestsTotal.WithLabelValues("GET", "/api/tasks", "200").Inc()
	m.TasksCreated.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/tasks", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksCreated))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), "tasks_created_total 1")
}
