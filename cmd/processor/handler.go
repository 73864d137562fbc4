package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/internal/capability"
	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/internal/infrastructure"
	"github.com/JaimeStill/rapid/internal/results"
	"github.com/JaimeStill/rapid/internal/review"
	"github.com/JaimeStill/rapid/internal/tools"
	"github.com/JaimeStill/rapid/pkg/cloud"
)

type Handler struct {
	infra     *infrastructure.Infrastructure
	processor *review.Processor
	logger    *slog.Logger
}

// NewHandler wires the processor and waits for the database and storage
// startup checks so that a cold start fails before accepting work.
func NewHandler(ctx context.Context, cfg *config.Config) (*Handler, error) {
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
	if err := infra.OpenEvents(); err != nil {
		return nil, err
	}

	logger := infra.Logger.With("module", "processor")
	bedrock := cloud.WithRegion(infra.AWS, cfg.Review.BedrockRegion)

	sinks := []review.Sink{
		results.NewSink(results.New(infra.Database.Connection(), logger, cfg.API.Pagination)),
	}
	if infra.Events != nil {
		sinks = append(sinks, review.NewEventSink(infra.Events))
	}

	processor := review.NewProcessor(
		infra.Storage,
		agent.NewBedrock(bedrock, cfg.Review.AgentOptions(), logger),
		capability.NewResolver(logger),
		tools.NewFactory(bedrock, logger),
		cfg.Review.Settings(),
		logger,
		sinks...,
	)

	if err := infra.Start(); err != nil {
		return nil, err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		return nil, err
	}

	logger.Info(
		"processor initialized",
		"document_model", cfg.Review.DocumentModel,
		"image_model", cfg.Review.ImageModel,
		"bedrock_region", cfg.Review.BedrockRegion,
		"events", infra.Events != nil,
		"version", cfg.Version,
	)

	return &Handler{
		infra:     infra,
		processor: processor,
		logger:    logger,
	}, nil
}

// Handle reviews one job. Errors are returned to the workflow, which owns
// retries and the failure path.
func (h *Handler) Handle(ctx context.Context, job review.Job) (review.Result, error) {
	result, err := h.processor.Process(ctx, job)
	if err != nil {
		h.logger.ErrorContext(ctx, "review failed",
			"review_job_id", job.ReviewJobID,
			"check_id", job.CheckID,
			"error", err,
		)
		return review.Result{}, err
	}
	return result, nil
}

func (h *Handler) Shutdown(timeout time.Duration) error {
	return h.infra.Lifecycle.Shutdown(timeout)
}
