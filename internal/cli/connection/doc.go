// Package connection is the scuttlekit-cli HTTP client for a running
// gateway's /register, /validate, /health and /ready endpoints.
package connection
