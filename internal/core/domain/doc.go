// Package domain defines the core domain models for ScuttleKit.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Token: an opaque credential bound to the AppSettings it was granted
//   - AppSettings: per-app read/write access by message type
//   - RegistrationParams: what an app submits to obtain a token
//   - Errors: domain error codes shared by HTTP and WebSocket surfaces
package domain
