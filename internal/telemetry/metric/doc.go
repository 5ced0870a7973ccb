// Package metric provides Prometheus metrics for ScuttleKit.
//
// Metrics include:
//
//   - App registrations by outcome
//   - Token validations by result
//   - Open WebSocket sessions
//   - Service dispatches by service and outcome, with latency
//   - HTTP requests by method and status
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
