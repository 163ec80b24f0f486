package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all settings, e.g.
// LAWLINKS_SERVER_ADDR for server.addr.
const envPrefix = "LAWLINKS"

// Default values.
const (
	DefaultAddr            = ":8000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultLookahead       = 12
	DefaultCacheTTL        = 10 * time.Minute
	DefaultCachePrefix     = "lawlinks:"
	DefaultNamespace       = "lawlinks"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so that environment overrides apply to
// keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)

	v.SetDefault("aliases.path", "")
	v.SetDefault("aliases.sqlite_dsn", "")
	v.SetDefault("aliases.sqlite_query", "")
	v.SetDefault("aliases.watch", false)
	v.SetDefault("aliases.compact", true)

	v.SetDefault("extract.lookahead", DefaultLookahead)

	v.SetDefault("morph.enabled", true)
	v.SetDefault("morph.dict_path", "")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.prefix", DefaultCachePrefix)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_paths", []string{"stderr"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultNamespace)
}

// Load reads the YAML file at path, when path is not empty, applies
// LAWLINKS_* environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}
	return unmarshal(v)
}

// Default returns the configuration produced by defaults and environment
// overrides alone.
func Default() (*Config, error) {
	return Load("")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
