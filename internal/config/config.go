// Package config loads temporal-kv settings from defaults, a JSON file and
// the environment.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Cache backends.
const (
	CacheBolt   = "bolt"
	CacheSocket = "socket"
	CacheNone   = "none"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvDB          = "TEMPORAL_KV_DB"
	EnvAddr        = "TEMPORAL_KV_ADDR"
	EnvCache       = "TEMPORAL_KV_CACHE"
	EnvCacheSocket = "TEMPORAL_KV_CACHE_SOCK"
)

// CacheConfig selects and configures the read cache.
type CacheConfig struct {
	Backend string `json:"backend,omitempty"`
	Path    string `json:"path,omitempty"`
	Socket  string `json:"socket,omitempty"`
	TTL     string `json:"ttl,omitempty"`
}

// Config holds every runtime setting.
type Config struct {
	DBPath   string      `json:"db_path,omitempty"`
	Addr     string      `json:"addr,omitempty"`
	LogLevel string      `json:"log_level,omitempty"`
	Cache    CacheConfig `json:"cache"`
}

// DefaultConfig returns a Config rooted at ~/.temporal-kv.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	dir := filepath.Join(home, ".temporal-kv")
	return Config{
		DBPath:   filepath.Join(dir, "store.db"),
		Addr:     ":8080",
		LogLevel: "info",
		Cache: CacheConfig{
			Backend: CacheSocket,
			Path:    filepath.Join(dir, "cache.bbolt"),
			Socket:  filepath.Join(dir, "cache.sock"),
			TTL:     "24h",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.DBPath != "" {
		c.DBPath = source.DBPath
	}
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if source.Cache.Backend != "" {
		c.Cache.Backend = source.Cache.Backend
	}
	if source.Cache.Path != "" {
		c.Cache.Path = source.Cache.Path
	}
	if source.Cache.Socket != "" {
		c.Cache.Socket = source.Cache.Socket
	}
	if source.Cache.TTL != "" {
		c.Cache.TTL = source.Cache.TTL
	}
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	c.Merge(&Config{
		DBPath: os.Getenv(EnvDB),
		Addr:   os.Getenv(EnvAddr),
		Cache: CacheConfig{
			Backend: os.Getenv(EnvCache),
			Socket:  os.Getenv(EnvCacheSocket),
		},
	})
}

// Validate checks enumerated fields and the TTL format.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBolt, CacheSocket, CacheNone:
	default:
		return fmt.Errorf("invalid cache backend %q (valid: bolt, socket, none)", c.Cache.Backend)
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// CacheTTL returns the parsed cache TTL; an empty TTL is zero.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := ParseTTL(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl: %w", err)
	}
	return d, nil
}

// Load builds a Config from defaults, the optional JSON file and the environment.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var loaded Config
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Merge(&loaded)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// ParseTTL parses a TTL string like "7d", "24h", "30m" into a time.Duration.
var ttlRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

func ParseTTL(s string) (time.Duration, error) {
	m := ttlRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid format %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
