// Package logger is the gateway's slog-backed structured logger.
//
// All loggers built by New share one level, changed at runtime with
// SetLevel. App tokens (sktk_ prefix) are masked to the prefix plus three
// leading and three trailing characters; string attributes whose key
// names a credential are replaced with ***REDACTED***.
//
// L(ctx) returns the process logger tagged with the request_id or
// session_id stored in ctx by the HTTP and WebSocket servers.
package logger
