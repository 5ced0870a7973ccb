package config

import "time"

// ServerConfig is the root configuration for scuttlekit-server.
type ServerConfig struct {
	// Path is the node's data directory. tokens.json lives in
	// <path>/scuttlekit.
	Path       string            `koanf:"path" yaml:"path"`
	Scuttlekit ScuttlekitSection `koanf:"scuttlekit" yaml:"scuttlekit"`
	Log        LogSection        `koanf:"log" yaml:"log"`
}

// ScuttlekitSection configures the gateway.
type ScuttlekitSection struct {
	Port               int      `koanf:"port" yaml:"port"`
	Host               string   `koanf:"host" yaml:"host"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	AllowNetworks      []string `koanf:"allow_networks" yaml:"allow_networks"`

	// RateLimit is requests/second per client IP; 0 disables it.
	RateLimit int `koanf:"rate_limit" yaml:"rate_limit"`

	RegistrationTimeout time.Duration `koanf:"registration_timeout" yaml:"registration_timeout"`
	DispatchTimeout     time.Duration `koanf:"dispatch_timeout" yaml:"dispatch_timeout"`

	// WatchTokens reloads tokens.json when another process changes it.
	WatchTokens bool `koanf:"watch_tokens" yaml:"watch_tokens"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
