package cloud

import (
	"fmt"
	"os"
)

// Config holds shared AWS client settings. Empty credentials defer to the
// default provider chain (environment, shared profile, or execution role).
type Config struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	SessionToken    string `toml:"session_token"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
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
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKeyID != "" {
		c.AccessKeyID = overlay.AccessKeyID
	}
	if overlay.SecretAccessKey != "" {
		c.SecretAccessKey = overlay.SecretAccessKey
	}
	if overlay.SessionToken != "" {
		c.SessionToken = overlay.SessionToken
	}
}

// StaticCredentials reports whether explicit keys were supplied.
func (c *Config) StaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func (c *Config) loadDefaults() {
	if c.Region == "" {
		c.Region = "us-west-2"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, target *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}

	set(env.Region, &c.Region)
	set(env.Endpoint, &c.Endpoint)
	set(env.AccessKeyID, &c.AccessKeyID)
	set(env.SecretAccessKey, &c.SecretAccessKey)
	set(env.SessionToken, &c.SessionToken)
}

func (c *Config) validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	return nil
}
