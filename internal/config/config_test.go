package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Upstream.Mode != ModeMock {
		t.Errorf("Expected mock mode, got %q", cfg.Upstream.Mode)
	}
	if cfg.Limits.Submit.Requests != 100 || cfg.Limits.Submit.Window != time.Minute {
		t.Errorf("Unexpected submit limit %+v", cfg.Limits.Submit)
	}
	if cfg.Limits.Status.Requests != 200 {
		t.Errorf("Unexpected status limit %+v", cfg.Limits.Status)
	}
	if cfg.Cache.StatusTTL != 5*time.Minute {
		t.Errorf("Expected 5m TTL, got %v", cfg.Cache.StatusTTL)
	}
	if cfg.Upstream.MockRetention != 24*time.Hour || cfg.Upstream.MockCapacity != 10000 {
		t.Errorf("Unexpected mock bounds %v %d", cfg.Upstream.MockRetention, cfg.Upstream.MockCapacity)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.Upstream.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.AllowedOrigins != "*" {
		t.Errorf("Expected default origins, got %q", cfg.Server.AllowedOrigins)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 0.0.0.0:9000
  allowed_origins: https://cnslr.example
upstream:
  mode: live
  timeout: 3s
limits:
  status:
    requests: 5
    window: 10s
`)
	t.Setenv("CNSLR_UPSTREAM_API_KEY", "from-env")
	t.Setenv("CNSLR_SERVER_DEV_DIAGNOSTICS", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9000" || cfg.Server.AllowedOrigins != "https://cnslr.example" {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if !cfg.Server.DevDiagnostics {
		t.Error("Expected env to enable dev diagnostics")
	}
	if cfg.Upstream.Mode != ModeLive || cfg.Upstream.Timeout != 3*time.Second {
		t.Errorf("Unexpected upstream config %+v", cfg.Upstream)
	}
	if cfg.Upstream.APIKey != "from-env" {
		t.Errorf("Expected api key from env, got %q", cfg.Upstream.APIKey)
	}
	if cfg.Limits.Status.Requests != 5 || cfg.Limits.Status.Window != 10*time.Second {
		t.Errorf("Unexpected status limit %+v", cfg.Limits.Status)
	}
	if cfg.Limits.Submit.Requests != 100 {
		t.Errorf("Unset keys must keep defaults, got %+v", cfg.Limits.Submit)
	}
	if err := cfg.ValidateLive(); err != nil {
		t.Errorf("ValidateLive failed: %v", err)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, "upstream:\n  mode: sandbox\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "upstream.mode") {
		t.Errorf("Expected mode error, got %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestValidateLiveNeedsKey(t *testing.T) {
	cfg := Default()
	cfg.Upstream.Mode = ModeLive
	if err := cfg.ValidateLive(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	cfg.Upstream.Mode = ModeMock
	if err := cfg.ValidateLive(); err != nil {
		t.Errorf("Mock mode needs no key, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero timeout", func(c *Config) { c.Upstream.Timeout = 0 }, "upstream.timeout"},
		{"zero mock capacity", func(c *Config) { c.Upstream.MockCapacity = 0 }, "upstream.mock_capacity"},
		{"zero limit", func(c *Config) { c.Limits.Submit.Requests = 0 }, "limits.submit"},
		{"zero ttl", func(c *Config) { c.Cache.StatusTTL = 0 }, "cache.status_ttl"},
		{"relative url", func(c *Config) {
			c.Upstream.Mode = ModeLive
			c.Upstream.StatusURL = "/status"
		}, "upstream.status_url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
