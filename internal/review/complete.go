package review

import (
	"math"
	"strings"

	"github.com/JaimeStill/rapid/internal/agent"
)

// Defaults applied to absent fields.
const (
	DefaultConfidence       = 0.5
	DefaultExplanation      = "No explanation provided"
	DefaultShortExplanation = "No short explanation provided"
	DefaultPageNumber       = 1
	MaxShortExplanation     = 80
)

// Complete turns a draft into a result with every field of its review type
// present.
func Complete(d Draft, t ReviewType) Result {
	r := Result{
		Result:           Fail,
		Confidence:       DefaultConfidence,
		Explanation:      DefaultExplanation,
		ShortExplanation: DefaultShortExplanation,
		ReviewType:       t,
		VerificationDetails: VerificationDetails{
			SourcesDetails: []agent.ToolRecord{},
		},
	}

	if d.Result != nil {
		r.Result = normalizeVerdict(*d.Result)
	}
	if d.Confidence != nil && !math.IsNaN(*d.Confidence) {
		r.Confidence = min(max(*d.Confidence, 0), 1)
	}
	if d.Explanation != nil {
		r.Explanation = *d.Explanation
	}
	if d.ShortExplanation != nil {
		r.ShortExplanation = truncateRunes(*d.ShortExplanation, MaxShortExplanation)
	}
	if d.VerificationDetails != nil && d.VerificationDetails.SourcesDetails != nil {
		r.VerificationDetails.SourcesDetails = d.VerificationDetails.SourcesDetails
	}

	switch t {
	case TypeImage:
		img := &ImageFields{UsedImageIndexes: []int{}, BoundingBoxes: []BoundingBox{}}
		if d.UsedImageIndexes != nil {
			img.UsedImageIndexes = d.UsedImageIndexes
		}
		if d.BoundingBoxes != nil {
			img.BoundingBoxes = d.BoundingBoxes
		}
		r.Image = img
	default:
		r.ReviewType = TypePDF
		pdf := &PDFFields{ExtractedText: TextExtract(""), PageNumber: DefaultPageNumber}
		if d.ExtractedText != nil {
			pdf.ExtractedText = *d.ExtractedText
		}
		if d.PageNumber != nil && *d.PageNumber >= 1 {
			pdf.PageNumber = *d.PageNumber
		}
		r.PDF = pdf
	}

	return r
}

func normalizeVerdict(s string) Verdict {
	if strings.EqualFold(strings.TrimSpace(s), string(Pass)) {
		return Pass
	}
	return Fail
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
