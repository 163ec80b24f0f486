// Package config loads lawlinks settings from an optional YAML file and
// LAWLINKS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coolbeans/lawlinks/pkg/logging"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Aliases AliasesConfig     `mapstructure:"aliases"`
	Extract ExtractConfig     `mapstructure:"extract"`
	Morph   MorphConfig       `mapstructure:"morph"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Log     logging.LogConfig `mapstructure:"log"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig controls the HTTP endpoint.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// AliasesConfig selects the alias mapping source.
type AliasesConfig struct {
	Path        string `mapstructure:"path"`
	SQLiteDSN   string `mapstructure:"sqlite_dsn"`
	SQLiteQuery string `mapstructure:"sqlite_query"`
	Watch       bool   `mapstructure:"watch"`
	Compact     bool   `mapstructure:"compact"`
}

// ExtractConfig tunes link extraction.
type ExtractConfig struct {
	Lookahead int `mapstructure:"lookahead"`
}

// MorphConfig controls the morphological dictionary.
type MorphConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DictPath string `mapstructure:"dict_path"`
}

// CacheConfig controls the optional Redis result cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks the configuration for values the service cannot run with.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Extract.Lookahead <= 0 {
		errs = append(errs, fmt.Errorf("extract.lookahead must be positive, got %d", c.Extract.Lookahead))
	}
	if c.Aliases.Watch && c.Aliases.Path == "" {
		errs = append(errs, errors.New("aliases.watch requires aliases.path"))
	}
	if c.Aliases.Watch && c.Aliases.SQLiteDSN != "" {
		errs = append(errs, errors.New("aliases.watch cannot be used with aliases.sqlite_dsn"))
	}
	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			errs = append(errs, errors.New("cache.addr is required when the cache is enabled"))
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
		}
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}

	return errors.Join(errs...)
}
