package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Verify validates the configuration and expands a leading "~" in Path.
func Verify(cfg *ServerConfig) error {
	if err := verifyPath(cfg); err != nil {
		return err
	}
	if err := verifyScuttlekit(&cfg.Scuttlekit); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyPath(cfg *ServerConfig) error {
	if strings.TrimSpace(cfg.Path) == "" {
		return errors.New("path is required")
	}
	expanded, err := ExpandHome(cfg.Path)
	if err != nil {
		return fmt.Errorf("path: %w", err)
	}
	cfg.Path = expanded
	return nil
}

func verifyScuttlekit(cfg *ScuttlekitSection) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("scuttlekit.port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.Host == "" {
		return errors.New("scuttlekit.host is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("scuttlekit.rate_limit must not be negative")
	}
	if cfg.RegistrationTimeout <= 0 {
		return errors.New("scuttlekit.registration_timeout must be positive")
	}
	if cfg.DispatchTimeout <= 0 {
		return errors.New("scuttlekit.dispatch_timeout must be positive")
	}
	for _, entry := range cfg.AllowNetworks {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("scuttlekit.allow_networks: %w", err)
			}
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("scuttlekit.allow_networks: invalid IP %q", entry)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
