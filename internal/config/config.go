// Package config loads cnslr settings from defaults, an optional YAML file,
// and CNSLR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CNSLR_UPSTREAM_API_KEY for upstream.api_key.
const EnvPrefix = "CNSLR"

// Upstream modes.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// DevDiagnostics puts upstream and internal error detail in responses.
	DevDiagnostics bool `mapstructure:"dev_diagnostics" yaml:"dev_diagnostics"`
}

// UpstreamConfig selects and addresses the agency API.
type UpstreamConfig struct {
	Mode        string        `mapstructure:"mode" yaml:"mode"`
	DisputesURL string        `mapstructure:"disputes_url" yaml:"disputes_url"`
	StatusURL   string        `mapstructure:"status_url" yaml:"status_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Mock mode only: how long and how many disputes are remembered.
	MockRetention time.Duration `mapstructure:"mock_retention" yaml:"mock_retention"`
	MockCapacity  int           `mapstructure:"mock_capacity" yaml:"mock_capacity"`
}

// Limit is a fixed-window request budget.
type Limit struct {
	Requests int           `mapstructure:"requests" yaml:"requests"`
	Window   time.Duration `mapstructure:"window" yaml:"window"`
}

// LimitsConfig holds one budget per gateway.
type LimitsConfig struct {
	Submit Limit `mapstructure:"submit" yaml:"submit"`
	Status Limit `mapstructure:"status" yaml:"status"`
}

// CacheConfig controls the status cache.
type CacheConfig struct {
	StatusTTL time.Duration `mapstructure:"status_ttl" yaml:"status_ttl"`
}

// StoreConfig locates wizard persistence.
type StoreConfig struct {
	// DBPath is the SQLite database for server-side wizard sessions.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
	// SessionDir holds the terminal wizard's JSON session files.
	SessionDir string `mapstructure:"session_dir" yaml:"session_dir"`
	// SessionMaxAge is how long an untouched server session is kept.
	SessionMaxAge time.Duration `mapstructure:"session_max_age" yaml:"session_max_age"`
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream" yaml:"upstream"`
	Limits   LimitsConfig   `mapstructure:"limits" yaml:"limits"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
}

// DataDir is ~/.cnslr, or ./.cnslr when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cnslr"
	}
	return filepath.Join(home, ".cnslr")
}

// DefaultPath is ~/.config/cnslr/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "cnslr", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	data := DataDir()

	v.SetDefault("server.addr", "127.0.0.1:7466")
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.dev_diagnostics", false)

	v.SetDefault("upstream.mode", ModeMock)
	v.SetDefault("upstream.disputes_url", "https://parkingtickets.nyc.gov/api/disputes")
	v.SetDefault("upstream.status_url", "https://parkingtickets.nyc.gov/api/disputes/status")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.mock_retention", 24*time.Hour)
	v.SetDefault("upstream.mock_capacity", 10000)

	v.SetDefault("limits.submit.requests", 100)
	v.SetDefault("limits.submit.window", time.Minute)
	v.SetDefault("limits.status.requests", 200)
	v.SetDefault("limits.status.window", time.Minute)

	v.SetDefault("cache.status_ttl", 5*time.Minute)

	v.SetDefault("store.db_path", filepath.Join(data, "cnslr.db"))
	v.SetDefault("store.session_dir", filepath.Join(data, "sessions"))
	v.SetDefault("store.session_max_age", 30*24*time.Hour)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration, ignoring the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads path on top of the defaults. An empty path means DefaultPath.
// A missing file is not an error. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Upstream.Mode = strings.ToLower(strings.TrimSpace(cfg.Upstream.Mode))
	return &cfg, nil
}

// Validate checks values that would otherwise fail at request time. Live
// mode needs an API key unless one will be resolved later from the
// keyring, see ValidateLive.
func (c *Config) Validate() error {
	switch c.Upstream.Mode {
	case ModeMock, ModeLive:
	default:
		return fmt.Errorf("config: upstream.mode must be %q or %q, got %q", ModeMock, ModeLive, c.Upstream.Mode)
	}
	if c.Upstream.Mode == ModeLive {
		for key, raw := range map[string]string{
			"upstream.disputes_url": c.Upstream.DisputesURL,
			"upstream.status_url":   c.Upstream.StatusURL,
		} {
			u, err := url.Parse(raw)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("config: %s is not an absolute URL: %q", key, raw)
			}
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("config: upstream.timeout must be positive")
	}
	if c.Upstream.Mode == ModeMock && (c.Upstream.MockRetention <= 0 || c.Upstream.MockCapacity <= 0) {
		return fmt.Errorf("config: upstream.mock_retention and upstream.mock_capacity must be positive")
	}
	for name, l := range map[string]Limit{"submit": c.Limits.Submit, "status": c.Limits.Status} {
		if l.Requests <= 0 || l.Window <= 0 {
			return fmt.Errorf("config: limits.%s needs positive requests and window", name)
		}
	}
	if c.Cache.StatusTTL <= 0 {
		return fmt.Errorf("config: cache.status_ttl must be positive")
	}
	return nil
}

// ErrMissingAPIKey is returned by ValidateLive when live mode has no key.
var ErrMissingAPIKey = errors.New("config: upstream.mode is live but no API key is configured (set CNSLR_UPSTREAM_API_KEY or run `cnslr credential set`)")

// ValidateLive checks that a live upstream has a key once credentials have
// been resolved into c.
func (c *Config) ValidateLive() error {
	if c.Upstream.Mode == ModeLive && strings.TrimSpace(c.Upstream.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}
