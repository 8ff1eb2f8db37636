// Package metrics holds the prometheus collectors of the API client and the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer: every observation is then dropped.
type Metrics struct {
	Registry *prometheus.Registry

	clientRequests *prometheus.CounterVec
	clientDuration *prometheus.HistogramVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		clientRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of API requests sent, by resource.",
			},
			[]string{"resource", "method", "status"},
		),
		clientDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"resource", "method"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "path"},
		),
	}
	m.Registry.MustRegister(
		m.clientRequests,
		m.clientDuration,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler exposes the registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveClientRequest records one API call. A zero status means no response was received.
func (m *Metrics) ObserveClientRequest(resource, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.clientRequests.WithLabelValues(resource, method, statusLabel(status)).Inc()
	m.clientDuration.WithLabelValues(resource, method).Observe(took.Seconds())
}

// TrackHTTPRequest marks a request as in flight. The returned func records its outcome.
func (m *Metrics) TrackHTTPRequest(method, path string) func(status int) {
	if m == nil {
		return func(int) {}
	}
	start := time.Now()
	m.httpInFlight.Inc()
	return func(status int) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, path, statusLabel(status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
