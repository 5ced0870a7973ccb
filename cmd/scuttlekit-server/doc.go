// Package main provides the entry point for scuttlekit-server.
//
// The server starts a ScuttleKit gateway in front of an in-process node:
//
//   - POST /register issues app tokens
//   - POST /validate checks them
//   - websocket sessions on / and /ws dispatch manifest calls
//   - /metrics, /health and /ready for operators
//
// Usage:
//
//	scuttlekit-server [flags]
//	scuttlekit-server --config /etc/scuttlekit/config.yaml
//
// Flags override the config file, which overrides SCUTTLEKIT_ environment
// variables. Editing the config file at runtime applies a new log level.
package main
