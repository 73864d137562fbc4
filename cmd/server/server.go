package main

import (
	"context"
	"time"

	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *infrastructure.HTTPServer
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.FinalizeStorage(); err != nil {
		return nil, err
	}

	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := infra.OpenDatabase(); err != nil {
		return nil, err
	}
	if err := infra.OpenStorage(); err != nil {
		return nil, err
	}

	modules, err := NewModules(ctx, infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    infrastructure.NewHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("startup checks failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
