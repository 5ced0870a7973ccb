package config

import (
	"fmt"

	"github.com/yndnr/scuttlekit-go/internal/infra/confloader"
)

// Load reads defaults, then configFile (if set), then SCUTTLEKIT_
// environment variables, then overrides, and verifies the result.
// overrides uses dotted keys such as "path" or "scuttlekit.port".
func Load(configFile string, overrides map[string]any) (*ServerConfig, error) {
	cfg := Default()

	loader := confloader.NewLoader()

	if err := loader.LoadFile(configFile); err != nil {
		return nil, err
	}
	if err := loader.LoadEnv(); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
	}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
