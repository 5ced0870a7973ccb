package config

import (
	"github.com/yndnr/scuttlekit-go/internal/gateway"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/metric"
)

// ToGateway converts ServerConfig to gateway.Config. cfg should have
// passed Verify.
func ToGateway(cfg *ServerConfig, log logger.Logger, metrics *metric.Registry) gateway.Config {
	return gateway.Config{
		Path:                cfg.Path,
		ScuttlekitPort:      cfg.Scuttlekit.Port,
		Host:                cfg.Scuttlekit.Host,
		CORSAllowedOrigins:  cfg.Scuttlekit.CORSAllowedOrigins,
		AllowNetworks:       cfg.Scuttlekit.AllowNetworks,
		RateLimit:           cfg.Scuttlekit.RateLimit,
		RegistrationTimeout: cfg.Scuttlekit.RegistrationTimeout,
		DispatchTimeout:     cfg.Scuttlekit.DispatchTimeout,
		WatchTokens:         cfg.Scuttlekit.WatchTokens,
		Version:             gateway.Version,
		Logger:              log,
		Metrics:             metrics,
	}
}

// LoggerConfig converts the log section to logger.Config.
func LoggerConfig(cfg *ServerConfig) logger.Config {
	lc := logger.DefaultConfig()
	if cfg.Log.Level != "" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	return lc
}
