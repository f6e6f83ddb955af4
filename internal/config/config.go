package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/pathfinder/pkg/database"
	"github.com/JaimeStill/pathfinder/pkg/lock"
	"github.com/JaimeStill/pathfinder/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPathfinderEnv             = "PATHFINDER_ENV"
	EnvPathfinderShutdownTimeout = "PATHFINDER_SHUTDOWN_TIMEOUT"
	EnvPathfinderVersion         = "PATHFINDER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PATHFINDER_DB_HOST",
	Port:            "PATHFINDER_DB_PORT",
	Name:            "PATHFINDER_DB_NAME",
	User:            "PATHFINDER_DB_USER",
	Password:        "PATHFINDER_DB_PASSWORD",
	SSLMode:         "PATHFINDER_DB_SSL_MODE",
	MaxOpenConns:    "PATHFINDER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PATHFINDER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PATHFINDER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PATHFINDER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PATHFINDER_STORAGE_CONTAINER_NAME",
	ConnectionString: "PATHFINDER_STORAGE_CONNECTION_STRING",
	MaxListSize:      "PATHFINDER_STORAGE_MAX_LIST_SIZE",
}

var lockEnv = &lock.Env{
	Backend:       "PATHFINDER_LOCK_BACKEND",
	Addr:          "PATHFINDER_LOCK_ADDR",
	Password:      "PATHFINDER_LOCK_PASSWORD",
	DB:            "PATHFINDER_LOCK_DB",
	Prefix:        "PATHFINDER_LOCK_PREFIX",
	TTL:           "PATHFINDER_LOCK_TTL",
	RetryInterval: "PATHFINDER_LOCK_RETRY_INTERVAL",
}

// Config is the root configuration for the Pathfinder service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Lock            lock.Config     `toml:"lock"`
	API             APIConfig       `toml:"api"`
	Agent           AgentConfig     `toml:"agent"`
	Workflow        WorkflowConfig  `toml:"workflow"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the PATHFINDER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPathfinderEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Lock.Merge(&overlay.Lock)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Lock.Finalize(lockEnv); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Agent.Finalize(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPathfinderShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPathfinderVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPathfinderEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
