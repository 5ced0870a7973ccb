// Package gateway is the process entry point of the ScuttleKit extension.
//
// Init bootstraps the token store under Config.Path, builds the validator,
// registrar and service registry, and binds the HTTP and websocket
// listener. A store that cannot be initialized fails Init before anything
// listens. Serve blocks until Shutdown.
package gateway
