// Package handler provides the HTTP request handlers of the ScuttleKit gateway.
//
//   - home.go: the one-line status page at /
//   - register.go: app registration
//   - validate.go: token validation
//   - health.go: liveness and readiness
//
// Handlers parse the request, call a domain service and translate domain
// errors to HTTP statuses by error code suffix.
package handler
