// Package api assembles the oversight API module: review results and the
// source documents they were produced from.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/internal/infrastructure"
	"github.com/JaimeStill/rapid/pkg/middleware"
	"github.com/JaimeStill/rapid/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled the OIDC provider is discovered before returning.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	if cfg.API.Auth.Enabled {
		verifier, err := middleware.NewOIDCVerifier(ctx, &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("oidc init failed: %w", err)
		}
		m.Use(middleware.Auth(verifier, runtime.Logger))
	}

	return m, nil
}
