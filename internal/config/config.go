// Package config loads the TOML configuration shared by the rapid binaries
// and applies environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/rapid/pkg/cloud"
	"github.com/JaimeStill/rapid/pkg/database"
	"github.com/JaimeStill/rapid/pkg/events"
	"github.com/JaimeStill/rapid/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRapidEnv             = "RAPID_ENV"
	EnvRapidShutdownTimeout = "RAPID_SHUTDOWN_TIMEOUT"
	EnvRapidVersion         = "RAPID_VERSION"
)

var cloudEnv = &cloud.Env{
	Region:          "AWS_REGION",
	Endpoint:        "RAPID_AWS_ENDPOINT",
	AccessKeyID:     "AWS_ACCESS_KEY_ID",
	SecretAccessKey: "AWS_SECRET_ACCESS_KEY",
	SessionToken:    "AWS_SESSION_TOKEN",
}

var databaseEnv = &database.Env{
	Host:            "RAPID_DB_HOST",
	Port:            "RAPID_DB_PORT",
	Name:            "RAPID_DB_NAME",
	User:            "RAPID_DB_USER",
	Password:        "RAPID_DB_PASSWORD",
	SSLMode:         "RAPID_DB_SSL_MODE",
	MaxOpenConns:    "RAPID_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "RAPID_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "RAPID_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "RAPID_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "RAPID_STORAGE_PROVIDER",
	Bucket:           "DOCUMENT_BUCKET",
	Prefix:           "RAPID_STORAGE_PREFIX",
	UsePathStyle:     "RAPID_STORAGE_USE_PATH_STYLE",
	ContainerName:    "RAPID_STORAGE_CONTAINER_NAME",
	ConnectionString: "RAPID_STORAGE_CONNECTION_STRING",
	AccountURL:       "RAPID_STORAGE_ACCOUNT_URL",
}

var eventsEnv = &events.Env{
	Brokers:      "RAPID_KAFKA_BROKERS",
	Topic:        "RAPID_KAFKA_TOPIC",
	RequiredAcks: "RAPID_KAFKA_REQUIRED_ACKS",
	BatchTimeout: "RAPID_KAFKA_BATCH_TIMEOUT",
	WriteTimeout: "RAPID_KAFKA_WRITE_TIMEOUT",
}

// Config is the root configuration. Load finalizes the sections every
// binary shares. Admission, Review and Storage carry required values only
// some binaries have, so those binaries finalize them explicitly.
type Config struct {
	Logging         LoggingConfig   `toml:"logging"`
	AWS             cloud.Config    `toml:"aws"`
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Events          events.Config   `toml:"events"`
	API             APIConfig       `toml:"api"`
	Admission       AdmissionConfig `toml:"admission"`
	Review          ReviewConfig    `toml:"review"`
	Storage         storage.Config  `toml:"storage"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the RAPID_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRapidEnv); env != "" {
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
// and finalizes the shared sections. If no config.toml exists, defaults and
// environment variables provide all configuration.
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

// FinalizeAdmission finalizes the dispatcher settings and its queue.
func (c *Config) FinalizeAdmission() error {
	if err := c.Admission.Finalize(); err != nil {
		return fmt.Errorf("admission: %w", err)
	}
	return nil
}

// FinalizeReview finalizes the processor settings and document storage.
func (c *Config) FinalizeReview() error {
	if err := c.Review.Finalize(); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	return c.FinalizeStorage()
}

// FinalizeStorage finalizes document storage on its own, for binaries that
// read documents without running reviews.
func (c *Config) FinalizeStorage() error {
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Logging.Merge(&overlay.Logging)
	c.AWS.Merge(&overlay.AWS)
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Events.Merge(&overlay.Events)
	c.API.Merge(&overlay.API)
	c.Admission.Merge(&overlay.Admission)
	c.Review.Merge(&overlay.Review)
	c.Storage.Merge(&overlay.Storage)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.AWS.Finalize(cloudEnv); err != nil {
		return fmt.Errorf("aws: %w", err)
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
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
	if v := os.Getenv(EnvRapidShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRapidVersion); v != "" {
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
	if env := os.Getenv(EnvRapidEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
