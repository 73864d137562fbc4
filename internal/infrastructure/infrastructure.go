// Package infrastructure assembles the dependencies shared by the rapid
// binaries: logging, AWS configuration, lifecycle coordination, and the
// optional database, document storage and event publisher.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/pkg/cloud"
	"github.com/JaimeStill/rapid/pkg/database"
	"github.com/JaimeStill/rapid/pkg/events"
	"github.com/JaimeStill/rapid/pkg/lifecycle"
	"github.com/JaimeStill/rapid/pkg/storage"
)

// Infrastructure holds the core systems. Database, Storage and Events stay
// nil until the matching Open method is called.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	AWS       aws.Config
	Database  database.System
	Storage   storage.System
	Events    *events.Publisher

	cfg *config.Config
}

// New creates the logger, lifecycle coordinator and AWS configuration.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging, os.Stderr)

	awsCfg, err := cloud.Load(ctx, &cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("aws init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(ctx),
		Logger:    logger,
		AWS:       awsCfg,
		cfg:       cfg,
	}, nil
}

// NewLogger builds a text or JSON slog logger at the configured level.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenDatabase creates the database system without connecting.
func (i *Infrastructure) OpenDatabase() error {
	db, err := database.New(&i.cfg.Database, i.Logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	i.Database = db
	return nil
}

// OpenStorage creates the document storage system. The storage section
// must already be finalized.
func (i *Infrastructure) OpenStorage() error {
	store, err := storage.New(&i.cfg.Storage, i.AWS, i.Logger)
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}
	i.Storage = store
	return nil
}

// OpenEvents creates the Kafka publisher when brokers are configured and
// is a no-op otherwise.
func (i *Infrastructure) OpenEvents() error {
	if !i.cfg.Events.Enabled() {
		i.Logger.Info("result events disabled")
		return nil
	}
	pub, err := events.New(&i.cfg.Events, i.Logger)
	if err != nil {
		return fmt.Errorf("events init failed: %w", err)
	}
	i.Events = pub
	return nil
}

// Start registers the opened systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if i.Events != nil {
		pub := i.Events
		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			if err := pub.Close(); err != nil {
				i.Logger.Error("event publisher close failed", "error", err)
			}
		})
	}
	return nil
}
