// Package config loads application configuration from a TOML file.
//
// Configuration is optional: every field has a working default for local
// development (file cache, in-memory store, localhost analysis service).
// A config file only needs to override what differs.
//
// Example traceviz.toml:
//
//	[analysis]
//	base_url = "https://analysis.internal:8000"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	uri = "mongodb://localhost:27017"
//	database = "traceviz"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Backend names accepted by the cache and store sections.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Config is the full application configuration.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
}

// AnalysisConfig configures the decision-analysis service client.
type AnalysisConfig struct {
	BaseURL string `toml:"base_url"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`    // "file", "redis", or "none"
	Dir       string `toml:"dir"`        // file backend: cache directory
	RedisAddr string `toml:"redis_addr"` // redis backend: host:port
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend  string `toml:"backend"`  // "memory" or "mongo"
	URI      string `toml:"uri"`      // mongo backend: connection string
	Database string `toml:"database"` // mongo backend: database name
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{BaseURL: ""}, // client falls back to its own default
		Cache:    CacheConfig{Backend: BackendFile, Dir: DefaultCacheDir()},
		Store:    StoreConfig{Backend: BackendMemory, Database: "traceviz"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "traceviz")
}

// Load reads a TOML config file, applying defaults for absent fields.
// An empty path or a missing file yields [Default].
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend %q requires redis_addr", BackendRedis)
	}

	switch c.Store.Backend {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.URI == "" {
		return fmt.Errorf("store backend %q requires uri", BackendMongo)
	}
	return nil
}
