package queue

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config identifies the review queue and the receive settings used in poll mode.
type Config struct {
	URL         string `toml:"url"`
	WaitTime    string `toml:"wait_time"`
	MaxMessages int    `toml:"max_messages"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL         string
	WaitTime    string
	MaxMessages string
}

// WaitTimeDuration returns WaitTime as a time.Duration.
func (c *Config) WaitTimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.WaitTime)
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
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.WaitTime != "" {
		c.WaitTime = overlay.WaitTime
	}
	if overlay.MaxMessages != 0 {
		c.MaxMessages = overlay.MaxMessages
	}
}

func (c *Config) loadDefaults() {
	if c.WaitTime == "" {
		c.WaitTime = "20s"
	}
	if c.MaxMessages == 0 {
		c.MaxMessages = 10
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.WaitTime != "" {
		if v := os.Getenv(env.WaitTime); v != "" {
			c.WaitTime = v
		}
	}
	if env.MaxMessages != "" {
		if v := os.Getenv(env.MaxMessages); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxMessages = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("url required")
	}
	d, err := time.ParseDuration(c.WaitTime)
	if err != nil {
		return fmt.Errorf("invalid wait_time: %w", err)
	}
	if d < 0 || d > 20*time.Second {
		return fmt.Errorf("wait_time must be between 0s and 20s: %s", c.WaitTime)
	}
	if c.MaxMessages < 1 || c.MaxMessages > 10 {
		return fmt.Errorf("max_messages must be between 1 and 10: %d", c.MaxMessages)
	}
	return nil
}
