// Package service provides the gateway's domain services.
//
// Domain services contain the business logic between the token store and
// the transports. They define interfaces for their storage dependencies so
// they can be tested without a filesystem.
//
// This package contains:
//
//   - Validator: lock-free token lookup and authorization against an
//     immutable snapshot of the token store
//   - Registrar: app registration, revocation and reload, keeping the
//     store and the Validator snapshot in step
//   - Registry: the named services a WebSocket client may dispatch to,
//     with the built-in notifications and whoami services
//
// All types are safe for concurrent use.
package service
