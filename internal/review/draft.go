package review

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/pkg/formatting"
)

// Draft is a partially populated result as reported by the model. Absent
// fields stay nil until Complete fills them.
type Draft struct {
	Result              *string
	Confidence          *float64
	Explanation         *string
	ShortExplanation    *string
	ExtractedText       *ExtractedText
	PageNumber          *int
	UsedImageIndexes    []int
	BoundingBoxes       []BoundingBox
	Citations           []string
	VerificationDetails *VerificationDetails

	// Method is the extraction tier the draft was recovered by. It is
	// MethodNone for fallback drafts.
	Method formatting.Method
}

// UnmarshalJSON decodes each known field independently. A field whose value
// has the wrong shape is treated as absent rather than failing the draft.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*d = Draft{}

	if raw, ok := fields["result"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			d.Result = &s
		}
	}
	if raw, ok := fields["confidence"]; ok {
		if f, ok := decodeNumber(raw); ok {
			d.Confidence = &f
		}
	}
	if raw, ok := fields["explanation"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			d.Explanation = &s
		}
	}
	if raw, ok := fields["shortExplanation"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			d.ShortExplanation = &s
		}
	}
	if raw, ok := fields["extractedText"]; ok && string(raw) != "null" {
		var e ExtractedText
		if json.Unmarshal(raw, &e) == nil {
			d.ExtractedText = &e
		}
	}
	if raw, ok := fields["pageNumber"]; ok {
		if f, ok := decodeNumber(raw); ok {
			n := int(f)
			d.PageNumber = &n
		}
	}
	if raw, ok := fields["usedImageIndexes"]; ok {
		var idx []int
		if json.Unmarshal(raw, &idx) == nil && idx != nil {
			d.UsedImageIndexes = idx
		}
	}
	if raw, ok := fields["boundingBoxes"]; ok {
		var boxes []BoundingBox
		if json.Unmarshal(raw, &boxes) == nil && boxes != nil {
			d.BoundingBoxes = boxes
		}
	}
	if raw, ok := fields["citations"]; ok {
		var c []string
		if json.Unmarshal(raw, &c) == nil && c != nil {
			d.Citations = c
		}
	}
	if raw, ok := fields["verificationDetails"]; ok {
		var v VerificationDetails
		if json.Unmarshal(raw, &v) == nil {
			d.VerificationDetails = &v
		}
	}

	return nil
}

// empty reports whether no result field was decoded. Verification details
// are ignored because the recorded tool history replaces them.
func (d Draft) empty() bool {
	return d.Result == nil &&
		d.Confidence == nil &&
		d.Explanation == nil &&
		d.ShortExplanation == nil &&
		d.ExtractedText == nil &&
		d.PageNumber == nil &&
		d.UsedImageIndexes == nil &&
		d.BoundingBoxes == nil &&
		d.Citations == nil
}

// decodeNumber accepts a JSON number or a numeric string. NaN and the
// infinities are rejected so the field falls back to its default.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// WithSources replaces the verification details with the recorded tool history.
func (d Draft) WithSources(records []agent.ToolRecord) Draft {
	if records == nil {
		records = []agent.ToolRecord{}
	}
	d.VerificationDetails = &VerificationDetails{SourcesDetails: records}
	return d
}
