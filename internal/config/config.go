package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"TempoRelay/internal/collector"
	"TempoRelay/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Refresh struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"refresh"`
	Storage struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`
	Sources struct {
		PrimaryBaseURL string `yaml:"primary_base_url"`
		FallbackURL    string `yaml:"fallback_url"`
		UserAgent      string `yaml:"user_agent"`
	} `yaml:"sources"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TEMPO_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TEMPO_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TEMPO_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("TEMPO_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TEMPO_INTERVAL: %w", err)
		}
		cfg.Refresh.IntervalSeconds = secs
	}
	if v := os.Getenv("TEMPO_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TEMPO_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9123
	}
	if c.Refresh.IntervalSeconds == 0 {
		c.Refresh.IntervalSeconds = 1800
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = store.BackendJSON
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case store.BackendSQLite:
			c.Storage.Path = "data/tempo.db"
		default:
			c.Storage.Path = "data/tempo_cache.json"
		}
	}
	if c.Sources.PrimaryBaseURL == "" {
		c.Sources.PrimaryBaseURL = collector.DefaultPrimaryBaseURL
	}
	if c.Sources.FallbackURL == "" {
		c.Sources.FallbackURL = collector.DefaultFallbackURL
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = collector.DefaultUserAgent
	}
}

// Validate checks that all fields hold usable values.
// Intervals below the scheduler floor are accepted; the scheduler clamps them.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("refresh.interval_seconds must be positive")
	}
	switch c.Storage.Backend {
	case store.BackendJSON, store.BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for backend %q", c.Storage.Backend)
		}
	case store.BackendNone:
	default:
		return fmt.Errorf("storage.backend must be one of json, sqlite, none; got %q", c.Storage.Backend)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Interval is the configured refresh interval before clamping.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Refresh.IntervalSeconds) * time.Second
}
