package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/metric"
)

// DefaultPort is the listen port when Config.ScuttlekitPort is zero.
const DefaultPort = 1103

// Config is what the host passes to Init.
type Config struct {
	// Path is the node's data directory. Required.
	Path string

	// ScuttlekitPort is the HTTP and websocket port (default: 1103).
	// Use -1 to bind an ephemeral port.
	ScuttlekitPort int

	// Host is the listen address (default: 127.0.0.1).
	Host string

	// CORSAllowedOrigins restricts browser origins (empty = allow all).
	CORSAllowedOrigins []string

	// AllowNetworks restricts client IPs (empty = no restriction).
	AllowNetworks []string

	// RateLimit is requests/second per client IP (0 = disabled).
	RateLimit int

	// RegistrationTimeout bounds POST /register (default: 5s).
	RegistrationTimeout time.Duration

	// DispatchTimeout bounds each websocket getService call (default: 10s).
	DispatchTimeout time.Duration

	// WatchTokens reloads the validator when tokens.json changes on disk.
	WatchTokens bool

	// Version is shown on the status page (default: Version).
	Version string

	// Logger defaults to logger.Default().
	Logger logger.Logger

	// Metrics defaults to metric.Global(). /metrics serves its registry.
	Metrics *metric.Registry
}

// DefaultConfig returns a Config with defaults for everything but Path.
func DefaultConfig() Config {
	return Config{
		ScuttlekitPort:      DefaultPort,
		Host:                "127.0.0.1",
		RateLimit:           100,
		RegistrationTimeout: 5 * time.Second,
		DispatchTimeout:     10 * time.Second,
		WatchTokens:         true,
		Version:             Version,
	}
}

// withDefaults fills zero fields and checks the required ones.
func (c Config) withDefaults() (Config, error) {
	def := DefaultConfig()
	if c.Path == "" {
		return c, errors.New("path is required")
	}
	if c.ScuttlekitPort == 0 {
		c.ScuttlekitPort = def.ScuttlekitPort
	}
	if c.ScuttlekitPort > 65535 || c.ScuttlekitPort < -1 {
		return c, fmt.Errorf("invalid port %d", c.ScuttlekitPort)
	}
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.RegistrationTimeout <= 0 {
		c.RegistrationTimeout = def.RegistrationTimeout
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = def.DispatchTimeout
	}
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Logger == nil {
		c.Logger = logger.Default()
	}
	if c.Metrics == nil {
		c.Metrics = metric.Global()
	}
	return c, nil
}

// listenPort maps the ephemeral sentinel to port 0.
func (c Config) listenPort() int {
	if c.ScuttlekitPort < 0 {
		return 0
	}
	return c.ScuttlekitPort
}
