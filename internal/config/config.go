// Package config resolves process-wide settings from a yaml file plus
// environment overrides. The resolved values (store path included) are
// injected into components at startup rather than read as hidden globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRefreshThreshold = 5 * time.Minute
	defaultRefreshInterval  = 15 * time.Minute
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Refresh RefreshConfig `yaml:"refresh"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	// Path to the sqlite account store.
	Path string `yaml:"path"`
}

// RefreshConfig holds durations as strings ("5m", "90s") so the yaml file
// stays human-readable; accessors parse and default them.
type RefreshConfig struct {
	// Threshold is how close to expiry a token may get before a sweep
	// refreshes it.
	Threshold string `yaml:"threshold"`
	// Interval between scheduled sweeps in serve mode.
	Interval string `yaml:"interval"`
}

// Load reads configuration from path, or from the first existing candidate
// path when path is empty. A missing file yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = resolveConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1", // set host 0.0.0.0 for LAN access
			Port: 8086,
		},
		Store: StoreConfig{
			Path: "nexus.db",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("NEXUS_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("NEXUS_PORT")); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("NEXUS_STORE_PATH")); v != "" {
		cfg.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("NEXUS_REFRESH_THRESHOLD")); v != "" {
		cfg.Refresh.Threshold = v
	}
	if v := strings.TrimSpace(os.Getenv("NEXUS_REFRESH_INTERVAL")); v != "" {
		cfg.Refresh.Interval = v
	}
}

// ListenAddr renders the host:port pair for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RefreshThreshold parses the configured threshold, defaulting to 5 minutes.
func (c *Config) RefreshThreshold() time.Duration {
	return parseDuration(c.Refresh.Threshold, defaultRefreshThreshold)
}

// RefreshInterval parses the configured sweep interval, defaulting to 15 minutes.
func (c *Config) RefreshInterval() time.Duration {
	return parseDuration(c.Refresh.Interval, defaultRefreshInterval)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

// resolveConfigPath returns the first existing candidate config file, or ""
// when none exists (defaults apply).
func resolveConfigPath() string {
	candidates := []string{
		"config/nexus.yaml",
		"/etc/claude-nexus/nexus.yaml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates,
			filepath.Join(homeDir, ".config", "claude-nexus", "nexus.yaml"),
			filepath.Join(homeDir, ".claude-nexus", "nexus.yaml"),
		)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
