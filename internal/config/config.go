// Package config loads service configuration from YAML with environment
// overrides for the handful of externally recognized options.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Player    PlayerConfig    `yaml:"player"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Audit     AuditConfig     `yaml:"audit"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

// ServerConfig controls HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// CatalogConfig describes the remote catalog source and refresh schedule.
type CatalogConfig struct {
	URL             string        `yaml:"url"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// PlayerConfig holds the embed player base URL.
type PlayerConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AuthConfig configures the bearer-token gate on the MCP endpoint.
// Enabled is an explicit deployment choice: when false the endpoint is
// open, regardless of Secret.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// CacheConfig configures ristretto caching of /videos responses.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	NumCounters int64         `yaml:"num_counters"`
	MaxCost     int64         `yaml:"max_cost"`
	BufferItems int64         `yaml:"buffer_items"`
	TTL         time.Duration `yaml:"ttl"`
}

// AuditConfig configures search/tool-call auditing.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HeartbeatConfig configures the periodic self-health-check task.
type HeartbeatConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from the supplied path or returns defaults when
// the path is empty or missing. ${VAR} references in the file are expanded
// from the environment, then the recognized environment overrides apply.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else {
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Catalog: CatalogConfig{
			URL:             "https://static.xsen.tv/catalog/videos.json",
			FetchTimeout:    30 * time.Second,
			InitialDelay:    5 * time.Second,
			RefreshInterval: 15 * time.Minute,
		},
		Player: PlayerConfig{
			BaseURL: "https://play.xsen.tv/embed",
		},
		Auth: AuthConfig{Enabled: false},
		Cache: CacheConfig{
			Enabled:     true,
			NumCounters: 1e4,
			MaxCost:     1 << 24,
			BufferItems: 64,
			TTL:         time.Minute,
		},
		Audit: AuditConfig{Enabled: true},
		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
		},
	}
}

// Recognized environment overrides. Setting an auth key both supplies the
// secret and enables the gate: deployments that export a key expect it to
// be enforced.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VIDEOS_URL"); v != "" {
		cfg.Catalog.URL = v
	}
	if v := os.Getenv("XSEN_PLAYER_URL"); v != "" {
		cfg.Player.BaseURL = v
	}
	if v := firstEnv("MCP_AUTH_KEY", "MCP_AUTH"); v != "" {
		cfg.Auth.Secret = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
