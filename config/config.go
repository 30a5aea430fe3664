// Package config loads the storage layer's configuration: which engine backs
// the process, how to reach it, and the ambient settings around it. The
// engine selection is read once at startup and immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names accepted in configuration.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// Config is the full storage configuration.
type Config struct {
	Engine        string      `yaml:"engine"`
	DSN           string      `yaml:"dsn"`
	MigrationsDir string      `yaml:"migrations_dir"`
	Pool          PoolConfig  `yaml:"pool"`
	Cache         CacheConfig `yaml:"cache"`
	Log           LogConfig   `yaml:"log"`
}

// PoolConfig bounds the connection pool for the client/server engines.
type PoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// Duration decodes YAML duration strings like "30m" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// CacheConfig configures the optional read-result cache.
type CacheConfig struct {
	// Kind is "", "memory" or "redis".
	Kind      string `yaml:"kind"`
	RedisAddr string `yaml:"redis_addr"`
}

// LogConfig configures the storage logger.
type LogConfig struct {
	// Level is "silent", "error", "warn" or "info".
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for the mistakes a deploy can make.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineSQLite, EngineMySQL, EnginePostgres:
	case "":
		return errors.New("engine is required")
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	if c.DSN == "" {
		return errors.New("dsn is required")
	}
	switch c.Cache.Kind {
	case "", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for redis cache")
		}
	default:
		return fmt.Errorf("unknown cache kind %q", c.Cache.Kind)
	}
	switch c.Log.Level {
	case "", "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
