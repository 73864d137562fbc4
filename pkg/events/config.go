package events

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the Kafka producer settings. Publishing is disabled when no
// brokers are configured.
type Config struct {
	Brokers      []string `toml:"brokers"`
	Topic        string   `toml:"topic"`
	RequiredAcks string   `toml:"required_acks"`
	BatchTimeout string   `toml:"batch_timeout"`
	WriteTimeout string   `toml:"write_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Brokers      string
	Topic        string
	RequiredAcks string
	BatchTimeout string
	WriteTimeout string
}

// Enabled reports whether any broker is configured.
func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// BatchTimeoutDuration returns BatchTimeout as a time.Duration.
func (c *Config) BatchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BatchTimeout)
	return d
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
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
	if len(overlay.Brokers) > 0 {
		c.Brokers = overlay.Brokers
	}
	if overlay.Topic != "" {
		c.Topic = overlay.Topic
	}
	if overlay.RequiredAcks != "" {
		c.RequiredAcks = overlay.RequiredAcks
	}
	if overlay.BatchTimeout != "" {
		c.BatchTimeout = overlay.BatchTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Topic == "" {
		c.Topic = "review-results"
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "one"
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = "10ms"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Brokers != "" {
		if v := os.Getenv(env.Brokers); v != "" {
			c.Brokers = nil
			for b := range strings.SplitSeq(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Brokers = append(c.Brokers, b)
				}
			}
		}
	}
	if env.Topic != "" {
		if v := os.Getenv(env.Topic); v != "" {
			c.Topic = v
		}
	}
	if env.RequiredAcks != "" {
		if v := os.Getenv(env.RequiredAcks); v != "" {
			c.RequiredAcks = v
		}
	}
	if env.BatchTimeout != "" {
		if v := os.Getenv(env.BatchTimeout); v != "" {
			c.BatchTimeout = v
		}
	}
	if env.WriteTimeout != "" {
		if v := os.Getenv(env.WriteTimeout); v != "" {
			c.WriteTimeout = v
		}
	}
}

func (c *Config) validate() error {
	switch c.RequiredAcks {
	case "none", "one", "all":
	default:
		return fmt.Errorf("invalid required_acks %q: must be none, one or all", c.RequiredAcks)
	}
	if _, err := time.ParseDuration(c.BatchTimeout); err != nil {
		return fmt.Errorf("invalid batch_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.WriteTimeout); err != nil {
		return fmt.Errorf("invalid write_timeout: %w", err)
	}
	return nil
}
