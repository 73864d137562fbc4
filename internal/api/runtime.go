package api

import (
	"log/slog"

	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/internal/infrastructure"
	"github.com/JaimeStill/rapid/pkg/database"
	"github.com/JaimeStill/rapid/pkg/pagination"
	"github.com/JaimeStill/rapid/pkg/storage"
)

// Runtime narrows Infrastructure to what the API module uses.
type Runtime struct {
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Pagination pagination.Config
	BasePath   string
	Version    string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Logger:     infra.Logger.With("module", "api"),
		Database:   infra.Database,
		Storage:    infra.Storage,
		Pagination: cfg.API.Pagination,
		BasePath:   cfg.API.BasePath,
		Version:    cfg.Version,
	}
}
