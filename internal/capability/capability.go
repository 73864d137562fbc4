// Package capability describes what each foundation model supports and what
// it costs. The registry is fixed at build time.
package capability

// Capability is the feature and pricing record of one model identifier.
type Capability struct {
	ID               string
	Name             string
	InputPer1K       float64
	OutputPer1K      float64
	EmbeddedDocument bool
	Citation         bool
	Caching          bool
	Notes            string
}

// Default is the conservative record used for unregistered models.
func Default(id string) Capability {
	return Capability{
		ID:   id,
		Name: "Unknown Model",
	}
}

// Cost is the USD price of one model invocation.
type Cost struct {
	Input  float64 `json:"inputCost"`
	Output float64 `json:"outputCost"`
	Total  float64 `json:"totalCost"`
}

// Cost prices the given token counts.
func (c Capability) Cost(inputTokens, outputTokens int) Cost {
	in := float64(inputTokens) / 1000 * c.InputPer1K
	out := float64(outputTokens) / 1000 * c.OutputPer1K
	return Cost{
		Input:  in,
		Output: out,
		Total:  in + out,
	}
}
