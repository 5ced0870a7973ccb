package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server != "localhost:1103" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Output != "table" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Profiles == nil {
		t.Error("Profiles should not be nil")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".scuttlekit", "cli.yaml")) {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server != Default().Server {
		t.Error("missing file should yield defaults")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	cfg := Default()
	cfg.Path = "/var/lib/node"
	cfg.Profiles["remote"] = Profile{Server: "gw.example.com:1103"}
	cfg.CurrentProfile = "remote"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Path != "/var/lib/node" || loaded.CurrentProfile != "remote" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Profiles["remote"].Server != "gw.example.com:1103" {
		t.Errorf("Profiles = %+v", loaded.Profiles)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("path: /data\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path != "/data" || cfg.Server != "localhost:1103" || cfg.Output != "table" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Path = "/base"
	cfg.Profiles["a"] = Profile{Server: "a:1"}
	cfg.Profiles["b"] = Profile{Server: "b:1", Path: "/b"}

	tests := []struct {
		name, current, profile string
		server, path           string
		ok                     bool
	}{
		{name: "top level", server: "localhost:1103", path: "/base", ok: true},
		{name: "explicit", profile: "b", server: "b:1", path: "/b", ok: true},
		{name: "current", current: "a", server: "a:1", path: "/base", ok: true},
		{name: "explicit beats current", current: "a", profile: "b", server: "b:1", path: "/b", ok: true},
		{name: "unknown", profile: "zzz", server: "localhost:1103", path: "/base", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.CurrentProfile = tt.current
			server, path, ok := cfg.Resolve(tt.profile)
			if server != tt.server || path != tt.path || ok != tt.ok {
				t.Errorf("Resolve(%q) = %q, %q, %v", tt.profile, server, path, ok)
			}
		})
	}
}
