// Package results stores completed reviews and serves the oversight API
// through which reviewers list, verify, override and delete them.
package results

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapid/internal/review"
)

// Record is a stored review result. Payload holds the full result as
// delivered by the processor; the other fields are indexed copies.
type Record struct {
	ID               uuid.UUID       `json:"id"`
	ReviewResultID   string          `json:"review_result_id"`
	ReviewJobID      string          `json:"review_job_id"`
	CheckID          string          `json:"check_id"`
	Result           string          `json:"result"`
	Confidence       float64         `json:"confidence"`
	ReviewType       string          `json:"review_type"`
	Explanation      string          `json:"explanation"`
	ShortExplanation string          `json:"short_explanation"`
	ModelID          *string         `json:"model_id"`
	TotalCost        *float64        `json:"total_cost"`
	Payload          json.RawMessage `json:"payload"`
	Overridden       bool            `json:"overridden"`
	VerifiedBy       *string         `json:"verified_by"`
	VerifiedAt       *time.Time      `json:"verified_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CreateCommand stores one result. A result re-delivered under the same
// ReviewResultID replaces the earlier record and clears its verification.
type CreateCommand struct {
	ReviewResultID   string
	ReviewJobID      string
	CheckID          string
	Result           string
	Confidence       float64
	ReviewType       string
	Explanation      string
	ShortExplanation string
	ModelID          *string
	TotalCost        *float64
	Payload          json.RawMessage
}

// NewCreateCommand builds the command for a completed review of job.
func NewCreateCommand(job review.Job, r review.Result) (CreateCommand, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return CreateCommand{}, fmt.Errorf("encode result: %w", err)
	}

	cmd := CreateCommand{
		ReviewResultID:   job.ReviewResultID,
		ReviewJobID:      job.ReviewJobID,
		CheckID:          job.CheckID,
		Result:           string(r.Result),
		Confidence:       r.Confidence,
		ReviewType:       string(r.ReviewType),
		Explanation:      r.Explanation,
		ShortExplanation: r.ShortExplanation,
		Payload:          payload,
	}
	if cmd.ReviewResultID == "" {
		cmd.ReviewResultID = uuid.NewString()
	}
	if r.Meta != nil {
		cmd.ModelID = &r.Meta.ModelID
		cmd.TotalCost = &r.Meta.TotalCost
	}
	return cmd, nil
}

// VerifyCommand records a reviewer confirming a result.
type VerifyCommand struct {
	VerifiedBy string `json:"verified_by"`
}

// OverrideCommand replaces the verdict of a result. Nil explanations keep
// the stored text.
type OverrideCommand struct {
	Result           string  `json:"result"`
	Explanation      *string `json:"explanation,omitempty"`
	ShortExplanation *string `json:"short_explanation,omitempty"`
}

// Validate normalizes the verdict and bounds the short explanation.
func (c *OverrideCommand) Validate() error {
	v := strings.ToLower(strings.TrimSpace(c.Result))
	if v != string(review.Pass) && v != string(review.Fail) {
		return fmt.Errorf("%w: result must be pass or fail", ErrInvalidRecord)
	}
	c.Result = v

	if c.ShortExplanation != nil {
		if runes := []rune(*c.ShortExplanation); len(runes) > review.MaxShortExplanation {
			short := string(runes[:review.MaxShortExplanation])
			c.ShortExplanation = &short
		}
	}
	return nil
}

// patch is merged into the stored payload so it matches the override.
func (c OverrideCommand) patch() ([]byte, error) {
	p := map[string]any{"result": c.Result}
	if c.Explanation != nil {
		p["explanation"] = *c.Explanation
	}
	if c.ShortExplanation != nil {
		p["shortExplanation"] = *c.ShortExplanation
	}
	return json.Marshal(p)
}
