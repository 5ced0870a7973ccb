// Package metric provides Prometheus metrics for ScuttleKit.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scuttlekit"

// Registry holds all gateway metrics on its own prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	Registrations   *prometheus.CounterVec
	Validations     *prometheus.CounterVec
	TokensLoaded    prometheus.Gauge
	SessionsOpen    prometheus.Gauge
	Dispatches      *prometheus.CounterVec
	DispatchLatency *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go runtime and process collectors
// registered alongside the gateway metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "App registrations by outcome.",
		}, []string{"outcome"}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Token validations by result.",
		}, []string{"result"}),
		TokensLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tokens",
			Help:      "Tokens in the current validator snapshot.",
		}),
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_sessions_open",
			Help:      "Open WebSocket sessions.",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Service dispatches by service and outcome.",
		}, []string{"service", "outcome"}),
		DispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Service dispatch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Registrations,
		r.Validations,
		r.TokensLoaded,
		r.SessionsOpen,
		r.Dispatches,
		r.DispatchLatency,
		r.RequestsTotal,
		r.RequestDuration,
	)

	return r
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordRegistration counts a registration attempt ("ok", "invalid", "duplicate", "timeout", "error").
func (r *Registry) RecordRegistration(outcome string) {
	r.Registrations.WithLabelValues(outcome).Inc()
}

// RecordValidation counts a token validation ("valid", "invalid").
func (r *Registry) RecordValidation(result string) {
	r.Validations.WithLabelValues(result).Inc()
}

// SetTokens records the size of the validator snapshot.
func (r *Registry) SetTokens(n int) {
	r.TokensLoaded.Set(float64(n))
}

// IncSessions increments the open session gauge.
func (r *Registry) IncSessions() {
	r.SessionsOpen.Inc()
}

// DecSessions decrements the open session gauge.
func (r *Registry) DecSessions() {
	r.SessionsOpen.Dec()
}

// RecordDispatch counts a dispatch and observes its latency in seconds.
func (r *Registry) RecordDispatch(service, outcome string, seconds float64) {
	r.Dispatches.WithLabelValues(service, outcome).Inc()
	r.DispatchLatency.WithLabelValues(service).Observe(seconds)
}

// RecordRequest counts an HTTP request and observes its latency in seconds.
func (r *Registry) RecordRequest(method, status string, seconds float64) {
	r.RequestsTotal.WithLabelValues(method, status).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(seconds)
}
