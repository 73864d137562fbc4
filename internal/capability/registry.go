package capability

type pricing struct {
	input, output float64
}

var (
	sonnet   = pricing{0.003, 0.015}
	regional = pricing{0.0033, 0.0165}
	opus3    = pricing{0.015, 0.075}
	opus45   = pricing{0.005, 0.025}
	haiku3   = pricing{0.00025, 0.00125}
	haiku35  = pricing{0.001, 0.005}
	premier  = pricing{0.0025, 0.0125}
	omni     = pricing{0.0003, 0.0025}
)

func claude(id, name string, p pricing, citation bool) Capability {
	return Capability{
		ID:               id,
		Name:             name,
		InputPer1K:       p.input,
		OutputPer1K:      p.output,
		EmbeddedDocument: true,
		Citation:         citation,
		Caching:          true,
	}
}

var registry = func() map[string]Capability {
	entries := []Capability{
		claude("us.anthropic.claude-3-7-sonnet-20250219-v1:0", "Claude 3.7 Sonnet (US)", sonnet, true),
		claude("anthropic.claude-3-7-sonnet-20250219-v1:0", "Claude 3.7 Sonnet", sonnet, true),

		claude("global.anthropic.claude-sonnet-4-20250514-v1:0", "Claude 4 Sonnet (Global)", sonnet, true),
		claude("us.anthropic.claude-sonnet-4-20250514-v1:0", "Claude 4 Sonnet (US)", sonnet, true),
		claude("eu.anthropic.claude-sonnet-4-20250514-v1:0", "Claude 4 Sonnet (EU)", sonnet, true),
		claude("apac.anthropic.claude-sonnet-4-20250514-v1:0", "Claude 4 Sonnet (APAC)", sonnet, true),
		claude("anthropic.claude-sonnet-4-20250514-v1:0", "Claude 4 Sonnet", sonnet, true),

		claude("global.anthropic.claude-sonnet-4-5-20250929-v1:0", "Claude 4.5 Sonnet (Global)", sonnet, true),
		claude("us.anthropic.claude-sonnet-4-5-20250929-v1:0", "Claude 4.5 Sonnet (US)", regional, true),
		claude("eu.anthropic.claude-sonnet-4-5-20250929-v1:0", "Claude 4.5 Sonnet (EU)", regional, true),
		claude("jp.anthropic.claude-sonnet-4-5-20250929-v1:0", "Claude 4.5 Sonnet (JP)", regional, true),
		claude("anthropic.claude-sonnet-4-5-20250929-v1:0", "Claude 4.5 Sonnet", sonnet, true),

		claude("global.anthropic.claude-opus-4-5-20251101-v1:0", "Claude 4.5 Opus (Global)", opus45, true),
		claude("anthropic.claude-opus-4-20250514-v1:0", "Claude 4 Opus", opus3, true),

		claude("anthropic.claude-3-5-sonnet-20241022-v2:0", "Claude 3.5 Sonnet v2", sonnet, true),
		claude("anthropic.claude-3-5-sonnet-20240620-v1:0", "Claude 3.5 Sonnet", sonnet, false),
		claude("anthropic.claude-3-5-haiku-20241022-v1:0", "Claude 3.5 Haiku", haiku35, false),
		claude("anthropic.claude-3-opus-20240229-v1:0", "Claude 3 Opus", opus3, false),
		claude("anthropic.claude-3-sonnet-20240229-v1:0", "Claude 3 Sonnet", sonnet, false),
		claude("anthropic.claude-3-haiku-20240307-v1:0", "Claude 3 Haiku", haiku3, false),

		{
			ID: "us.amazon.nova-premier-v1:0", Name: "Nova Premier (US)",
			InputPer1K: premier.input, OutputPer1K: premier.output,
			EmbeddedDocument: true, Citation: true,
		},
		{
			ID: "amazon.nova-premier-v1:0", Name: "Nova Premier",
			InputPer1K: premier.input, OutputPer1K: premier.output,
			EmbeddedDocument: true, Citation: true,
		},
		{
			ID: "us.amazon.nova-2-omni-v1:0", Name: "Nova 2 Omni (US)",
			InputPer1K: omni.input, OutputPer1K: omni.output,
			EmbeddedDocument: true,
			Notes:            "Supports document blocks but not citations (InternalServerException).",
		},
		{
			ID: "amazon.nova-2-omni-v1:0", Name: "Nova 2 Omni",
			InputPer1K: omni.input, OutputPer1K: omni.output,
			EmbeddedDocument: true,
			Notes:            "Supports document blocks but not citations (InternalServerException).",
		},
	}

	m := make(map[string]Capability, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}()

// Lookup returns the registered capability for an exact model id.
func Lookup(id string) (Capability, bool) {
	c, ok := registry[id]
	return c, ok
}
