package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Proxy.RefreshInterval != 240*time.Second {
		t.Errorf("Proxy.RefreshInterval = %v, want 240s", cfg.Proxy.RefreshInterval)
	}
	if cfg.Proxy.ReconcileInterval != 60*time.Second {
		t.Errorf("Proxy.ReconcileInterval = %v, want 60s", cfg.Proxy.ReconcileInterval)
	}
	if cfg.Proxy.ValidationWorkers != 100 {
		t.Errorf("Proxy.ValidationWorkers = %d, want 100", cfg.Proxy.ValidationWorkers)
	}
	if cfg.Monitor.MaxStructureAttempts != 3 {
		t.Errorf("Monitor.MaxStructureAttempts = %d, want 3", cfg.Monitor.MaxStructureAttempts)
	}
	if len(cfg.Monitor.UserAgents) == 0 {
		t.Error("Monitor.UserAgents is empty")
	}
	if cfg.Markup.ResultsCountPhrase != "znaleźliśmy" {
		t.Errorf("Markup.ResultsCountPhrase = %q", cfg.Markup.ResultsCountPhrase)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
database:
  driver: postgres
  postgres_url: postgres://u:p@db:5432/monitor
monitor:
  refresh_time: 2m
  workers: 4
notifier:
  language: pl
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MONITOR_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Monitor.RefreshTime != 2*time.Minute {
		t.Errorf("Monitor.RefreshTime = %v, want 2m", cfg.Monitor.RefreshTime)
	}
	if cfg.Monitor.Workers != 4 {
		t.Errorf("Monitor.Workers = %d, want 4", cfg.Monitor.Workers)
	}
	if cfg.Notifier.Language != "pl" {
		t.Errorf("Notifier.Language = %q, want pl", cfg.Notifier.Language)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090 from env", cfg.Server.Port)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() with a missing explicit file returned nil error")
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"webhook without url", func(c *Config) { c.Notifier.Kind = "webhook" }},
		{"unknown session mode", func(c *Config) { c.Monitor.SessionMode = "ftp" }},
		{"attempt caps inverted", func(c *Config) { c.Monitor.MaxAttempts = 2 }},
		{"no validation workers", func(c *Config) { c.Proxy.ValidationWorkers = 0 }},
		{"zero fetch timeout", func(c *Config) { c.Monitor.FetchTimeout = 0 }},
		{"negative fetch timeout", func(c *Config) { c.Monitor.FetchTimeout = -time.Second }},
		{"zero candidate ttl", func(c *Config) { c.Redis.CandidateTTL = 0 }},
		{"negative notify ttl", func(c *Config) { c.Redis.NotifyTTL = -time.Hour }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() returned nil error")
			}
		})
	}
}
