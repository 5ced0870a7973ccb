// Package httpserver provides the HTTP listener of the ScuttleKit gateway.
//
// Routes:
//
//   - GET /: status page, or a websocket upgrade when requested
//   - GET /ws: websocket endpoint
//   - POST /register, POST /validate
//   - GET /health, GET /ready, GET /metrics
//
// Every route runs behind the middleware chain Recover, CORS, RequestID,
// NetworkACL, RateLimit and Audit. Wrapped response writers forward
// hijacking so websocket upgrades survive the chain.
package httpserver
