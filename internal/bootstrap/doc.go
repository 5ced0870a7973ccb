// Package bootstrap makes sure a node has a token store before the gateway starts.
//
// EnsureInitialized is idempotent across restarts. First run is detected by
// the absence of <dataDir>/scuttlekit; a directory without a usable
// tokens.json (an interrupted first run) is completed rather than trusted.
// Any failure is returned as domain.ErrBootstrap so the host can refuse to
// load the extension instead of serving from corrupt state.
package bootstrap
