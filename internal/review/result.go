package review

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/rapid/internal/agent"
)

// Verdict is the pass or fail decision of a review.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// ReviewType tags a result with the kind of files it reviewed.
type ReviewType string

const (
	TypePDF   ReviewType = "PDF"
	TypeImage ReviewType = "IMAGE"
)

// Result is a completed review record. Exactly one of PDF and Image is set,
// matching ReviewType.
type Result struct {
	Result              Verdict
	Confidence          float64
	Explanation         string
	ShortExplanation    string
	ReviewType          ReviewType
	PDF                 *PDFFields
	Image               *ImageFields
	VerificationDetails VerificationDetails
	Meta                *Meta
}

// PDFFields are present on document reviews.
type PDFFields struct {
	ExtractedText ExtractedText
	PageNumber    int
}

// ImageFields are present on image reviews.
type ImageFields struct {
	UsedImageIndexes []int
	BoundingBoxes    []BoundingBox
}

// BoundingBox marks a region of one image. Coordinates are
// [x1, y1, x2, y2] on a 0-1000 scale.
type BoundingBox struct {
	ImageIndex  int        `json:"imageIndex"`
	Label       string     `json:"label"`
	Coordinates [4]float64 `json:"coordinates"`
}

// VerificationDetails lists the tool invocations behind a result.
type VerificationDetails struct {
	SourcesDetails []agent.ToolRecord `json:"sourcesDetails"`
}

type wireResult struct {
	Result              Verdict             `json:"result"`
	Confidence          float64             `json:"confidence"`
	Explanation         string              `json:"explanation"`
	ShortExplanation    string              `json:"shortExplanation"`
	ReviewType          ReviewType          `json:"reviewType"`
	ExtractedText       *ExtractedText      `json:"extractedText,omitempty"`
	PageNumber          *int                `json:"pageNumber,omitempty"`
	UsedImageIndexes    *[]int              `json:"usedImageIndexes,omitempty"`
	BoundingBoxes       *[]BoundingBox      `json:"boundingBoxes,omitempty"`
	VerificationDetails VerificationDetails `json:"verificationDetails"`
	Meta                *Meta               `json:"reviewMeta,omitempty"`
}

// MarshalJSON flattens the type-specific fields into one object.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Result:              r.Result,
		Confidence:          r.Confidence,
		Explanation:         r.Explanation,
		ShortExplanation:    r.ShortExplanation,
		ReviewType:          r.ReviewType,
		VerificationDetails: r.VerificationDetails,
		Meta:                r.Meta,
	}
	if w.VerificationDetails.SourcesDetails == nil {
		w.VerificationDetails.SourcesDetails = []agent.ToolRecord{}
	}

	switch {
	case r.PDF != nil:
		w.ExtractedText = &r.PDF.ExtractedText
		w.PageNumber = &r.PDF.PageNumber
	case r.Image != nil:
		indexes := r.Image.UsedImageIndexes
		if indexes == nil {
			indexes = []int{}
		}
		boxes := r.Image.BoundingBoxes
		if boxes == nil {
			boxes = []BoundingBox{}
		}
		w.UsedImageIndexes = &indexes
		w.BoundingBoxes = &boxes
	}

	return json.Marshal(w)
}

// UnmarshalJSON reads a stored record, selecting the type-specific fields
// by reviewType.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Result{
		Result:              w.Result,
		Confidence:          w.Confidence,
		Explanation:         w.Explanation,
		ShortExplanation:    w.ShortExplanation,
		ReviewType:          w.ReviewType,
		VerificationDetails: w.VerificationDetails,
		Meta:                w.Meta,
	}

	switch w.ReviewType {
	case TypeImage:
		img := &ImageFields{UsedImageIndexes: []int{}, BoundingBoxes: []BoundingBox{}}
		if w.UsedImageIndexes != nil {
			img.UsedImageIndexes = *w.UsedImageIndexes
		}
		if w.BoundingBoxes != nil {
			img.BoundingBoxes = *w.BoundingBoxes
		}
		r.Image = img
	case TypePDF:
		pdf := &PDFFields{PageNumber: 1}
		if w.ExtractedText != nil {
			pdf.ExtractedText = *w.ExtractedText
		}
		if w.PageNumber != nil {
			pdf.PageNumber = *w.PageNumber
		}
		r.PDF = pdf
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReviewType, w.ReviewType)
	}
	return nil
}

// ExtractedText is either a single passage or a list of cited passages.
// A non-nil Citations marks the list form, even when it is empty.
type ExtractedText struct {
	Text      string
	Citations []string
}

// TextExtract holds a single passage.
func TextExtract(s string) ExtractedText {
	return ExtractedText{Text: s}
}

// CitationExtract holds a list of cited passages.
func CitationExtract(citations []string) ExtractedText {
	if citations == nil {
		citations = []string{}
	}
	return ExtractedText{Citations: citations}
}

func (e ExtractedText) MarshalJSON() ([]byte, error) {
	if e.Citations != nil {
		return json.Marshal(e.Citations)
	}
	return json.Marshal(e.Text)
}

// UnmarshalJSON accepts a string, a list of strings, or null. Any other
// value is kept as its raw JSON text.
func (e *ExtractedText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*e = ExtractedText{}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*e = TextExtract(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		*e = CitationExtract(list)
		return nil
	}

	*e = TextExtract(string(trimmed))
	return nil
}
