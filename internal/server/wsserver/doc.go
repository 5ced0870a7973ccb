// Package wsserver runs the authenticated service-dispatch protocol over
// WebSocket connections.
//
// Each accepted connection gets a Session with its own goroutine. Frames
// are processed one at a time:
//
//	{"id": 1, "method": "auth", "args": ["sktk_..."]}
//	{"id": 2, "method": "getService", "args": ["notifications"]}
//
// Responses echo id verbatim and carry either "result" or
// "error": {"kind", "code", "message"}. Source services stream
// {"id", "result", "stream": true} frames followed by {"id", "end": true}.
//
// A token may also be presented on the upgrade request, as the "token"
// query parameter or an "Authorization: Bearer" header. Authorization
// failures and malformed frames are answered with an error frame; the
// connection stays open.
package wsserver
