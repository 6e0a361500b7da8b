// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the server records into. Construct one per
// process with New; tests use their own registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PassesCreated       *prometheus.CounterVec
	PassAccesses        *prometheus.CounterVec
	AIFallbacks         *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medpass_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medpass_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PassesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medpass_health_pass_created_total",
			Help: "Health passes created by appointment specialty.",
		}, []string{"specialty"}),
		PassAccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medpass_health_pass_access_total",
			Help: "Anonymous health pass accesses by result (shared, expired, not_found).",
		}, []string{"result"}),
		AIFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medpass_ai_fallback_total",
			Help: "AI collaborator calls that fell back to safe defaults.",
		}, []string{"operation"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medpass_events_published_total",
			Help: "Domain events handed to the broker by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.PassesCreated,
		m.PassAccesses,
		m.AIFallbacks,
		m.EventsPublished,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
