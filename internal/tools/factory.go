package tools

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"

	"github.com/JaimeStill/rapid/internal/agent"
)

// Factory builds the tool set for a review from its configuration.
type Factory struct {
	retrieve        RetrieveAPI
	codeInterpreter agent.Tool
	logger          *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithCodeInterpreter supplies the tool used when a configuration enables
// code execution. Without it such requests are logged and skipped.
func WithCodeInterpreter(t agent.Tool) Option {
	return func(f *Factory) { f.codeInterpreter = t }
}

// NewFactory creates a Factory from an AWS configuration.
func NewFactory(awsCfg aws.Config, logger *slog.Logger, opts ...Option) *Factory {
	return NewFactoryFromAPI(bedrockagentruntime.NewFromConfig(awsCfg), logger, opts...)
}

// NewFactoryFromAPI creates a Factory over an existing retrieval client.
func NewFactoryFromAPI(api RetrieveAPI, logger *slog.Logger, opts ...Option) *Factory {
	f := &Factory{
		retrieve: api,
		logger:   logger.With("system", "tools"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build returns the tools enabled by cfg. A nil configuration yields none.
func (f *Factory) Build(ctx context.Context, cfg *Configuration) []agent.Tool {
	if cfg.Empty() {
		return nil
	}

	var built []agent.Tool

	if cfg.CodeInterpreter {
		if f.codeInterpreter != nil {
			built = append(built, f.codeInterpreter)
		} else {
			f.logger.WarnContext(ctx, "code interpreter requested but not available")
		}
	}

	if len(cfg.KnowledgeBase) > 0 {
		built = append(built, NewKnowledgeBaseQuery(f.retrieve, cfg.KnowledgeBase, f.logger))
		for _, kb := range cfg.KnowledgeBase {
			f.logger.DebugContext(ctx, "knowledge base enabled",
				"knowledge_base_id", kb.KnowledgeBaseID,
				"data_sources", kb.DataSourceIDs,
			)
		}
	}

	if len(cfg.MCPConfig) > 0 {
		f.logger.InfoContext(ctx, "mcp configuration ignored", "bytes", len(cfg.MCPConfig))
	}

	f.logger.InfoContext(ctx, "tools built", "count", len(built))
	return built
}
