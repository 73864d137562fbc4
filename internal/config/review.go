package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/internal/review"
	"github.com/JaimeStill/rapid/pkg/formatting"
)

const (
	EnvDocumentModelID = "DOCUMENT_PROCESSING_MODEL_ID"
	EnvImageModelID    = "IMAGE_REVIEW_MODEL_ID"
	EnvEnableCitations = "ENABLE_CITATIONS"
	EnvBedrockRegion   = "BEDROCK_REGION"
)

const defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

// ReviewConfig holds the processor settings.
type ReviewConfig struct {
	DocumentModel       string  `toml:"document_model"`
	ImageModel          string  `toml:"image_model"`
	EnableCitations     *bool   `toml:"enable_citations"`
	BedrockRegion       string  `toml:"bedrock_region"`
	MaxDocumentSize     string  `toml:"max_document_size"`
	MaxTokens           int     `toml:"max_tokens"`
	Temperature         float32 `toml:"temperature"`
	MaxTurns            int     `toml:"max_turns"`
	TruncateLength      int     `toml:"truncate_length"`
	DownloadConcurrency int     `toml:"download_concurrency"`
	WorkDir             string  `toml:"work_dir"`
}

// Settings returns the processor settings.
func (c *ReviewConfig) Settings() review.Settings {
	size, _ := formatting.ParseBytes(c.MaxDocumentSize)
	return review.Settings{
		DocumentModel:       c.DocumentModel,
		ImageModel:          c.ImageModel,
		Citations:           c.EnableCitations != nil && *c.EnableCitations,
		MaxDocumentSize:     size,
		MaxTokens:           c.MaxTokens,
		Temperature:         c.Temperature,
		DownloadConcurrency: c.DownloadConcurrency,
		WorkDir:             c.WorkDir,
	}
}

// AgentOptions returns the agent loop bounds.
func (c *ReviewConfig) AgentOptions() agent.Options {
	return agent.Options{
		MaxTurns:       c.MaxTurns,
		TruncateLength: c.TruncateLength,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReviewConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ReviewConfig) Merge(overlay *ReviewConfig) {
	if overlay.DocumentModel != "" {
		c.DocumentModel = overlay.DocumentModel
	}
	if overlay.ImageModel != "" {
		c.ImageModel = overlay.ImageModel
	}
	if overlay.EnableCitations != nil {
		c.EnableCitations = overlay.EnableCitations
	}
	if overlay.BedrockRegion != "" {
		c.BedrockRegion = overlay.BedrockRegion
	}
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxTurns != 0 {
		c.MaxTurns = overlay.MaxTurns
	}
	if overlay.TruncateLength != 0 {
		c.TruncateLength = overlay.TruncateLength
	}
	if overlay.DownloadConcurrency != 0 {
		c.DownloadConcurrency = overlay.DownloadConcurrency
	}
	if overlay.WorkDir != "" {
		c.WorkDir = overlay.WorkDir
	}
}

func (c *ReviewConfig) loadDefaults() {
	if c.DocumentModel == "" {
		c.DocumentModel = defaultModelID
	}
	if c.ImageModel == "" {
		c.ImageModel = defaultModelID
	}
	if c.EnableCitations == nil {
		enabled := true
		c.EnableCitations = &enabled
	}
	if c.BedrockRegion == "" {
		c.BedrockRegion = "us-west-2"
	}
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "4.5MB"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 8192
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = 25
	}
	if c.TruncateLength == 0 {
		c.TruncateLength = 2000
	}
	if c.DownloadConcurrency == 0 {
		c.DownloadConcurrency = 4
	}
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
}

func (c *ReviewConfig) loadEnv() {
	if v := os.Getenv(EnvDocumentModelID); v != "" {
		c.DocumentModel = v
	}
	if v := os.Getenv(EnvImageModelID); v != "" {
		c.ImageModel = v
	}
	if v := os.Getenv(EnvEnableCitations); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EnableCitations = &b
		}
	}
	if v := os.Getenv(EnvBedrockRegion); v != "" {
		c.BedrockRegion = v
	}
	if v := os.Getenv("RAPID_REVIEW_MAX_DOCUMENT_SIZE"); v != "" {
		c.MaxDocumentSize = v
	}
	if v := os.Getenv("RAPID_REVIEW_WORK_DIR"); v != "" {
		c.WorkDir = v
	}
}

func (c *ReviewConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxDocumentSize); err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive: %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1: %v", c.Temperature)
	}
	if c.DownloadConcurrency < 1 {
		return fmt.Errorf("download_concurrency must be positive: %d", c.DownloadConcurrency)
	}
	return nil
}
