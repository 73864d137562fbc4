package review

import (
	"encoding/json"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/pkg/formatting"
)

// Fallback values used when no structured payload can be recovered.
const (
	FallbackConfidence       = 0.5
	FallbackShortExplanation = "parse failure"
)

// Extract locates the structured payload in raw model text and reports
// whether one was found. The draft records which extraction tier matched.
// An object carrying none of the result fields, such as {}, counts as not
// found so the caller keeps the raw text.
func Extract(raw string) (Draft, bool) {
	span, method, ok := formatting.ExtractJSON(raw)
	if !ok {
		return Draft{}, false
	}

	var d Draft
	if err := json.Unmarshal([]byte(span), &d); err != nil || d.empty() {
		return Draft{}, false
	}
	d.Method = method
	return d, true
}

// ToDraft converts a finished agent run into a draft. Citation mode takes
// extractedText from the self-reported citations array, falling back to
// the citations returned alongside the response. When nothing can be
// parsed the draft is a low-confidence fail carrying the raw text.
func ToDraft(out agent.Output, citations bool) Draft {
	d, ok := Extract(out.Text)
	if !ok {
		result := string(Fail)
		confidence := FallbackConfidence
		text := out.Text
		short := FallbackShortExplanation
		d = Draft{
			Result:           &result,
			Confidence:       &confidence,
			Explanation:      &text,
			ShortExplanation: &short,
		}
	}

	if citations {
		switch {
		case len(d.Citations) > 0:
			e := CitationExtract(d.Citations)
			d.ExtractedText = &e
		case len(out.Citations) > 0:
			e := CitationExtract(out.Citations)
			d.ExtractedText = &e
		}
	}

	return d.WithSources(out.History)
}
