package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New("campus")

	m.ObserveClientRequest("students", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	m.ObserveClientRequest("students", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.ObserveClientRequest("students", http.MethodPost, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.clientRequests.WithLabelValues("students", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clientRequests.WithLabelValues("students", http.MethodPost, "error")))

	done := m.TrackHTTPRequest(http.MethodGet, "/v1/:resource")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done(http.StatusNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/v1/:resource", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "campus_client_requests_total"))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveClientRequest("students", http.MethodGet, http.StatusOK, time.Millisecond)
		m.TrackHTTPRequest(http.MethodGet, "/")(http.StatusOK)
	})
}
