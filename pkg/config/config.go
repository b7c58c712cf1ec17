// Package config loads the flowlens TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/flowlens/config.toml (falling back to
// ~/.config/flowlens/config.toml). A missing file is not an error: every
// field has a default.
//
//	[store]
//	backend = "sqlite"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[layout]
//	auto = true
//	vertical_spacing = 200
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/store"
)

const appName = "flowlens"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultAddr is the listen address of "flowlens serve".
const DefaultAddr = "127.0.0.1:8080"

// Config is the root of config.toml.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPrefix     string `toml:"redis_prefix"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// CacheConfig selects the transform cache.
type CacheConfig struct {
	Backend     string   `toml:"backend"`
	Dir         string   `toml:"dir"`
	TTL         Duration `toml:"ttl"`
	RedisAddr   string   `toml:"redis_addr"`
	RedisPrefix string   `toml:"redis_prefix"`
}

// LayoutConfig holds the auto layout spacing and the default mode.
type LayoutConfig struct {
	Auto bool `toml:"auto"`
	layout.Options
}

// ServerConfig configures "flowlens serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Store:  StoreConfig{Backend: store.BackendFile},
		Cache:  CacheConfig{Backend: CacheFile},
		Layout: LayoutConfig{Auto: true, Options: layout.DefaultOptions()},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of [Default]. An empty path means [DefaultPath].
// Keys that do not belong to any section are rejected so typos surface.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errs.New(errs.ErrCodeInvalidInput, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown backends and non-positive spacing.
func (c Config) Validate() error {
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "store.backend %q is not one of %v", c.Store.Backend, store.Backends)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errs.New(errs.ErrCodeInvalidInput, "cache.backend %q is not one of file, redis, none", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errs.New(errs.ErrCodeInvalidInput, "cache.redis_addr is required for the redis cache")
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Layout.HorizontalSpacing <= 0 || c.Layout.VerticalSpacing <= 0 {
		return errs.New(errs.ErrCodeInvalidInput, "layout spacing must be positive")
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidInput, "server.addr must not be empty")
	}
	return nil
}

// StoreOptions converts the [store] section for [store.Open].
func (c Config) StoreOptions() store.Config {
	return store.Config{
		Backend:         c.Store.Backend,
		Path:            c.Store.Path,
		RedisAddr:       c.Store.RedisAddr,
		RedisPrefix:     c.Store.RedisPrefix,
		MongoURI:        c.Store.MongoURI,
		MongoDatabase:   c.Store.MongoDatabase,
		MongoCollection: c.Store.MongoCollection,
	}
}

// CacheDir returns cache.dir or $XDG_CACHE_HOME/flowlens.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}
