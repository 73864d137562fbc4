package review

import (
	"math"
	"time"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/internal/capability"
)

// Meta records the model, token usage and cost of a review.
type Meta struct {
	ModelID         string    `json:"model_id"`
	InputTokens     int       `json:"input_tokens"`
	OutputTokens    int       `json:"output_tokens"`
	InputCost       float64   `json:"input_cost"`
	OutputCost      float64   `json:"output_cost"`
	TotalCost       float64   `json:"total_cost"`
	Pricing         Pricing   `json:"pricing"`
	DurationSeconds float64   `json:"duration_seconds"`
	Timestamp       time.Time `json:"timestamp"`
}

// Pricing is the per-1000-token price applied to a review.
type Pricing struct {
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

// NewMeta prices usage against the capability record.
func NewMeta(c capability.Capability, modelID string, usage agent.Usage, elapsed time.Duration, at time.Time) *Meta {
	cost := c.Cost(usage.InputTokens, usage.OutputTokens)
	return &Meta{
		ModelID:      modelID,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		InputCost:    cost.Input,
		OutputCost:   cost.Output,
		TotalCost:    cost.Total,
		Pricing: Pricing{
			InputPer1K:  c.InputPer1K,
			OutputPer1K: c.OutputPer1K,
		},
		DurationSeconds: math.Round(elapsed.Seconds()*100) / 100,
		Timestamp:       at.UTC(),
	}
}
