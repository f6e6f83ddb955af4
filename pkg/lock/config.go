package lock

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names a lock implementation.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendRedis Backend = "redis"
)

// Config selects and configures the lock backend.
type Config struct {
	Backend       Backend `toml:"backend"`
	Addr          string  `toml:"addr"`
	Password      string  `toml:"password"`
	DB            int     `toml:"db"`
	Prefix        string  `toml:"prefix"`
	TTL           string  `toml:"ttl"`
	RetryInterval string  `toml:"retry_interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend       string
	Addr          string
	Password      string
	DB            string
	Prefix        string
	TTL           string
	RetryInterval string
}

// TTLDuration returns TTL as a time.Duration.
func (c *Config) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// RetryIntervalDuration returns RetryInterval as a time.Duration.
func (c *Config) RetryIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Addr != "" {
		c.Addr = overlay.Addr
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.DB != 0 {
		c.DB = overlay.DB
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.RetryInterval != "" {
		c.RetryInterval = overlay.RetryInterval
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.Prefix == "" {
		c.Prefix = "pathfinder:lock:"
	}
	if c.TTL == "" {
		c.TTL = "2m"
	}
	if c.RetryInterval == "" {
		c.RetryInterval = "100ms"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = Backend(v)
		}
	}
	if env.Addr != "" {
		if v := os.Getenv(env.Addr); v != "" {
			c.Addr = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.DB != "" {
		if v := os.Getenv(env.DB); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.DB = n
			}
		}
	}
	if env.Prefix != "" {
		if v := os.Getenv(env.Prefix); v != "" {
			c.Prefix = v
		}
	}
	if env.TTL != "" {
		if v := os.Getenv(env.TTL); v != "" {
			c.TTL = v
		}
	}
	if env.RetryInterval != "" {
		if v := os.Getenv(env.RetryInterval); v != "" {
			c.RetryInterval = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendLocal, BackendRedis:
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if d, err := time.ParseDuration(c.TTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid ttl: %q", c.TTL)
	}
	if d, err := time.ParseDuration(c.RetryInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid retry_interval: %q", c.RetryInterval)
	}
	return nil
}
