package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/rapid/pkg/middleware"
	"github.com/JaimeStill/rapid/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "RAPID_CORS_ENABLED",
	Origins:          "RAPID_CORS_ORIGINS",
	AllowedMethods:   "RAPID_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "RAPID_CORS_ALLOWED_HEADERS",
	AllowCredentials: "RAPID_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "RAPID_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "RAPID_AUTH_ENABLED",
	Issuer:   "RAPID_AUTH_ISSUER",
	ClientID: "RAPID_AUTH_CLIENT_ID",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "RAPID_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "RAPID_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds the oversight API base path, CORS, reviewer
// authentication and pagination settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Auth       middleware.AuthConfig `toml:"auth"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if v := os.Getenv("RAPID_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.Pagination.Merge(&overlay.Pagination)
}
