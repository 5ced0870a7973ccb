package config

import "time"

// Default configuration values.
const (
	DefaultPort                = 1103
	DefaultHost                = "127.0.0.1"
	DefaultRateLimit           = 100
	DefaultRegistrationTimeout = 5 * time.Second
	DefaultDispatchTimeout     = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration. Path has no default.
func Default() *ServerConfig {
	return &ServerConfig{
		Scuttlekit: ScuttlekitSection{
			Port:                DefaultPort,
			Host:                DefaultHost,
			RateLimit:           DefaultRateLimit,
			RegistrationTimeout: DefaultRegistrationTimeout,
			DispatchTimeout:     DefaultDispatchTimeout,
			WatchTokens:         true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
