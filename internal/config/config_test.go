package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080
additional_ports = [8081]

[authority]
profile = "dev"

[storage]
settings_db_path = "/tmp/settings.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// Defaults filled for everything the file omitted
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want loopback default", cfg.Server.Host)
	}
	if cfg.Authority.Binary != "aws" {
		t.Errorf("binary = %q, want \"aws\"", cfg.Authority.Binary)
	}
	if cfg.Authority.TimeoutSecs != 120 {
		t.Errorf("timeout = %d, want 120", cfg.Authority.TimeoutSecs)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}

	if cfg.Authority.Profile != "dev" {
		t.Errorf("profile = %q, want \"dev\"", cfg.Authority.Profile)
	}
	if len(cfg.Server.AdditionalPorts) != 1 || cfg.Server.AdditionalPorts[0] != 8081 {
		t.Errorf("additional ports = %v", cfg.Server.AdditionalPorts)
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Storage: StorageConfig{SettingsDBPath: "/tmp/settings.db"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"duplicate additional port", func(c *Config) { c.Server.AdditionalPorts = []int{8080} }, "duplicate port"},
		{"bad additional port", func(c *Config) { c.Server.AdditionalPorts = []int{-1} }, "invalid additional"},
		{"negative timeout", func(c *Config) { c.Authority.TimeoutSecs = -1 }, "invalid authority timeout"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"missing settings db", func(c *Config) { c.Storage.SettingsDBPath = "" }, "settings_db_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithFallbackPrefersExplicitPath(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090

[storage]
settings_db_path = "/tmp/settings.db"
`)

	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}
