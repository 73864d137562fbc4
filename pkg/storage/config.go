package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Providers supported by New.
const (
	ProviderS3    = "s3"
	ProviderAzure = "azure"
)

// Config selects a storage provider and holds its connection parameters.
// Bucket and Prefix apply to s3. ContainerName and either ConnectionString
// or AccountURL apply to azure; AccountURL authenticates with the default
// Azure credential chain.
type Config struct {
	Provider         string `toml:"provider"`
	Bucket           string `toml:"bucket"`
	Prefix           string `toml:"prefix"`
	UsePathStyle     bool   `toml:"use_path_style"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	Bucket           string
	Prefix           string
	UsePathStyle     string
	ContainerName    string
	ConnectionString string
	AccountURL       string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.UsePathStyle {
		c.UsePathStyle = true
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderS3
	}
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(dst *string, name string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(&c.Provider, env.Provider)
	set(&c.Bucket, env.Bucket)
	set(&c.Prefix, env.Prefix)
	set(&c.ContainerName, env.ContainerName)
	set(&c.ConnectionString, env.ConnectionString)
	set(&c.AccountURL, env.AccountURL)

	if env.UsePathStyle != "" {
		if v := os.Getenv(env.UsePathStyle); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.UsePathStyle = b
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderS3:
		if c.Bucket == "" {
			return fmt.Errorf("bucket required for s3 storage")
		}
	case ProviderAzure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.ConnectionString == "" && c.AccountURL == "" {
			return fmt.Errorf("connection_string or account_url required for azure storage")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Provider)
	}
	return nil
}
