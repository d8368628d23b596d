// Package config provides YAML and environment based configuration for the
// scheduling facade.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/hupe1980/schedmesh/batch"
	"github.com/hupe1980/schedmesh/cluster"
	"github.com/hupe1980/schedmesh/logging"
	"github.com/hupe1980/schedmesh/scheduling"
)

// EnvPrefix prefixes every environment override, e.g. SCHEDMESH_LOG_LEVEL=debug.
const EnvPrefix = "SCHEDMESH"

// Config is the root configuration.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Cache bounds the handle cache
	Cache CacheConfig `mapstructure:"cache"`

	// Batch controls priority update coalescing
	Batch BatchConfig `mapstructure:"batch"`

	// Cluster selects the supervisor membership source
	Cluster ClusterConfig `mapstructure:"cluster"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: json or text
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
	// File, when set, writes to a rotated file instead of stdout
	File     string         `mapstructure:"file"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// CacheConfig bounds the handle cache.
type CacheConfig struct {
	// MaxEntries of 0 keeps every resolved API
	MaxEntries     int           `mapstructure:"max_entries"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
}

// BatchConfig controls priority update coalescing.
type BatchConfig struct {
	Window       time.Duration `mapstructure:"window"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
	Disabled     bool          `mapstructure:"disabled"`
}

// ClusterConfig selects the supervisor membership source. RedisAddr takes
// precedence over a static Supervisors list.
type ClusterConfig struct {
	Supervisors []string `mapstructure:"supervisors"`
	RedisAddr   string   `mapstructure:"redis_addr"`
	RedisKey    string   `mapstructure:"redis_key"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Batch: BatchConfig{Window: batch.DefaultWindow},
		Cluster: ClusterConfig{
			RedisKey: cluster.DefaultRedisKey,
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise it searches
// common locations for schedmesh.yaml. Environment variables use the prefix
// SCHEDMESH and `.` is replaced with `_`.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.add_source", cfg.Log.AddSource)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)
	v.SetDefault("cache.resolve_timeout", cfg.Cache.ResolveTimeout)
	v.SetDefault("batch.window", cfg.Batch.Window)
	v.SetDefault("batch.max_batch_size", cfg.Batch.MaxBatchSize)
	v.SetDefault("batch.disabled", cfg.Batch.Disabled)
	v.SetDefault("cluster.supervisors", cfg.Cluster.Supervisors)
	v.SetDefault("cluster.redis_addr", cfg.Cluster.RedisAddr)
	v.SetDefault("cluster.redis_key", cfg.Cluster.RedisKey)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("schedmesh")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".schedmesh"))
		}
	}

	// a missing config file falls back to defaults and env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	case "":
		c.Log.Format = "json"
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("invalid cache.max_entries: %d", c.Cache.MaxEntries)
	}
	if c.Batch.Window < 0 {
		return fmt.Errorf("invalid batch.window: %s", c.Batch.Window)
	}
	if c.Batch.MaxBatchSize < 0 {
		return fmt.Errorf("invalid batch.max_batch_size: %d", c.Batch.MaxBatchSize)
	}
	if c.Cluster.RedisKey == "" {
		c.Cluster.RedisKey = cluster.DefaultRedisKey
	}
	return nil
}

// LoggerConfig converts the log section into a logging configuration.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultLoggerConfig()
	lc.Level = logging.ParseLevel(c.Log.Level)
	lc.Format = c.Log.Format
	lc.AddSource = c.Log.AddSource
	lc.File = c.Log.File
	lc.Rotation = logging.RotationConfig{
		MaxSizeMB:  c.Log.Rotation.MaxSizeMB,
		MaxBackups: c.Log.Rotation.MaxBackups,
		MaxAgeDays: c.Log.Rotation.MaxAgeDays,
		Compress:   c.Log.Rotation.Compress,
	}
	return lc
}

// Locator returns the configured membership source, or nil when the cluster
// section names none. A Redis locator owns a client the caller must close.
func (c *Config) Locator() cluster.Locator {
	if c.Cluster.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.Cluster.RedisAddr})
		return cluster.NewRedisLocator(client, c.Cluster.RedisKey)
	}
	if len(c.Cluster.Supervisors) > 0 {
		return cluster.StaticLocator(c.Cluster.Supervisors)
	}
	return nil
}

// SchedulingOptions returns an option function applying the cache and batch
// sections together with logger and locator.
func (c *Config) SchedulingOptions(logger logging.Logger, locator cluster.Locator) func(o *scheduling.Options) {
	return func(o *scheduling.Options) {
		if logger != nil {
			o.Logger = logger
		}
		if locator != nil {
			o.Locator = locator
		}
		o.MaxEntries = c.Cache.MaxEntries
		o.ResolveTimeout = c.Cache.ResolveTimeout
		o.BatchWindow = c.Batch.Window
		o.MaxBatchSize = c.Batch.MaxBatchSize
		o.DisableBatching = c.Batch.Disabled
	}
}
