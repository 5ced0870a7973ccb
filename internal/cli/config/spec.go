package config

// CLIConfig is the configuration for scuttlekit-cli.
type CLIConfig struct {
	// Server is the gateway address for remote commands.
	Server string `json:"server" yaml:"server"`
	// Path is the node data directory for local token commands.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Output is the default output format (table, json, yaml).
	Output string `json:"output" yaml:"output"`

	// Profiles are named server/path pairs selected with --profile.
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	// CurrentProfile is used when --profile is not given.
	CurrentProfile string `json:"current_profile,omitempty" yaml:"current_profile,omitempty"`
}

// Profile is a saved gateway target.
type Profile struct {
	Server string `json:"server" yaml:"server"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   "localhost:1103",
		Output:   "table",
		Profiles: make(map[string]Profile),
	}
}

// Resolve returns the server and path for the named profile, falling back
// to CurrentProfile and then the top-level values. ok is false when name
// is set but unknown.
func (c *CLIConfig) Resolve(name string) (server, path string, ok bool) {
	server, path = c.Server, c.Path
	if name == "" {
		name = c.CurrentProfile
		if name == "" {
			return server, path, true
		}
	}
	p, found := c.Profiles[name]
	if !found {
		return server, path, false
	}
	if p.Server != "" {
		server = p.Server
	}
	if p.Path != "" {
		path = p.Path
	}
	return server, path, true
}
