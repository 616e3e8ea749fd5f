// Package config loads berry-stats configuration from defaults, an optional
// config file and BERRY_STATS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/berry-stats/pkg/client"
	"github.com/Sternrassler/berry-stats/pkg/logging"
)

// EnvPrefix prefixes every environment variable, e.g. BERRY_STATS_REDIS_ADDR.
const EnvPrefix = "BERRY_STATS"

// Config is the full service configuration.
type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	API             APIConfig     `mapstructure:"api"`
	Redis           RedisConfig   `mapstructure:"redis"`
	Cache           CacheConfig   `mapstructure:"cache"`
	Log             LogConfig     `mapstructure:"log"`
}

// APIConfig configures the upstream PokeAPI client.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PageSize       int           `mapstructure:"page_size"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

// RedisConfig configures the response cache backend. An empty Addr disables
// caching.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig configures response caching.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// SetDefaults registers every key with its default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("api.base_url", client.DefaultBaseURL)
	v.SetDefault("api.user_agent", "berry-stats/0.1.0")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.page_size", 0)
	v.SetDefault("api.max_concurrency", 5)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load applies defaults and environment overrides to v, reads the config
// file if one was set with v.SetConfigFile, and returns the validated result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL (got %q)", c.API.BaseURL))
	}
	if c.API.UserAgent == "" {
		errs = append(errs, errors.New("api.user_agent is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be > 0 (got %s)", c.API.Timeout))
	}
	if c.API.PageSize < 0 {
		errs = append(errs, fmt.Errorf("api.page_size must be >= 0 (got %d)", c.API.PageSize))
	}
	if c.API.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("api.max_concurrency must be >= 1 (got %d)", c.API.MaxConcurrency))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be >= 0 (got %s)", c.Cache.TTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be > 0 (got %s)", c.ShutdownTimeout))
	}
	if err := logging.ValidateLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// CacheEnabled reports whether a Redis response cache is configured.
func (c Config) CacheEnabled() bool {
	return c.Redis.Addr != "" && c.Cache.TTL > 0
}
