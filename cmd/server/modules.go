package main

import (
	"context"

	"github.com/JaimeStill/rapid/internal/api"
	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/internal/infrastructure"
	"github.com/JaimeStill/rapid/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(ctx context.Context, infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(ctx, cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.Probes(infra.Lifecycle)
	return router
}
