// Package config provides configuration management for the audit service.
// Values come from a YAML config file, environment variables, and defaults,
// in that order of precedence, via viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/siteaudit/internal/jobstore"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// Default configuration values.
const (
	DefaultServerAddress    = ":8080"
	defaultReadTimeout      = 30 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultUserAgent        = "SiteAuditBot/1.0 (+https://github.com/jonesrussell/siteaudit)"
	defaultRequestTimeout   = 15 * time.Second
	defaultMaxPages         = 50
	defaultMaxDepth         = 3
	defaultRequestDelay     = 500 * time.Millisecond
	defaultMaxConcurrency   = 4
	defaultStaleAfter       = 5 * time.Minute
	defaultWatchdogSchedule = "@every 1m"
	defaultRedisAddress     = "localhost:6379"
)

// Config is the root configuration for the service.
type Config struct {
	Server  ServerConfig         `mapstructure:"server"`
	Crawler CrawlerConfig        `mapstructure:"crawler"`
	Worker  WorkerConfig         `mapstructure:"worker"`
	Redis   jobstore.RedisConfig `mapstructure:"redis"`
	Logging logger.Config        `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Debug        bool          `mapstructure:"debug"`
}

// CrawlerConfig holds crawl pipeline defaults. Submitted jobs may tighten
// the bounds but inherit these when unset.
type CrawlerConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxPages       int           `mapstructure:"max_pages"`
	MaxDepth       int           `mapstructure:"max_depth"`
	RequestDelay   time.Duration `mapstructure:"request_delay"`
}

// WorkerConfig holds job processing configuration.
type WorkerConfig struct {
	// MaxConcurrency caps the number of jobs processing at once; jobs
	// beyond it remain queued.
	MaxConcurrency int `mapstructure:"max_concurrency"`
	// StaleAfter is how long a processing job may go without progress
	// before the watchdog fails it.
	StaleAfter time.Duration `mapstructure:"stale_after"`
	// WatchdogSchedule is the cron spec for stale-job sweeps.
	WatchdogSchedule string `mapstructure:"watchdog_schedule"`
}

// SetDefaults registers every default value with viper. Called before the
// config file and environment are read so they take precedence.
func SetDefaults() {
	viper.SetDefault("server.address", DefaultServerAddress)
	viper.SetDefault("server.read_timeout", defaultReadTimeout)
	viper.SetDefault("server.write_timeout", defaultWriteTimeout)
	viper.SetDefault("server.idle_timeout", defaultIdleTimeout)
	viper.SetDefault("server.debug", false)

	viper.SetDefault("crawler.user_agent", defaultUserAgent)
	viper.SetDefault("crawler.request_timeout", defaultRequestTimeout)
	viper.SetDefault("crawler.max_pages", defaultMaxPages)
	viper.SetDefault("crawler.max_depth", defaultMaxDepth)
	viper.SetDefault("crawler.request_delay", defaultRequestDelay)

	viper.SetDefault("worker.max_concurrency", defaultMaxConcurrency)
	viper.SetDefault("worker.stale_after", defaultStaleAfter)
	viper.SetDefault("worker.watchdog_schedule", defaultWatchdogSchedule)

	viper.SetDefault("redis.address", defaultRedisAddress)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("logging.level", logger.DefaultLevel)
	viper.SetDefault("logging.encoding", logger.DefaultEncoding)
}

// Load unmarshals the effective configuration and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("config: server.address is required")
	}

	if c.Worker.MaxConcurrency <= 0 {
		return errors.New("config: worker.max_concurrency must be positive")
	}

	if c.Crawler.MaxPages <= 0 {
		return errors.New("config: crawler.max_pages must be positive")
	}

	if c.Crawler.MaxDepth < 0 {
		return errors.New("config: crawler.max_depth cannot be negative")
	}

	if c.Redis.Address == "" {
		return errors.New("config: redis.address is required")
	}

	return nil
}
