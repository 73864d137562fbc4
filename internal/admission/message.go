package admission

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is one delivered queue message.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          string
	SentAt        time.Time
}

// Wait returns how long the message has been queued as of now.
// A message without SentAt reports zero wait.
func (m Message) Wait(now time.Time) time.Duration {
	if m.SentAt.IsZero() {
		return 0
	}
	return now.Sub(m.SentAt)
}

// Body is the job payload carried by a queue message. Both the single-job
// shape and the older multi-job shape with a jobs list are accepted.
type Body struct {
	ReviewJobID string
	UserID      string
	Jobs        []JobRef
}

// JobRef addresses one review job and its owner.
type JobRef struct {
	ReviewJobID string `json:"reviewJobId"`
	UserID      string `json:"userId,omitempty"`
}

// DecodeBody parses a message body. Only a body that is not a JSON object
// wraps ErrMalformedBody. Fields the controller reads are taken leniently:
// numbers are kept as their literal text and values of any other shape are
// treated as absent, so an unexpected field type never drops a job.
func DecodeBody(raw string) (Body, error) {
	if !json.Valid([]byte(raw)) {
		return Body{}, fmt.Errorf("%w: invalid JSON", ErrMalformedBody)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Body{}, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if fields == nil {
		return Body{}, fmt.Errorf("%w: null body", ErrMalformedBody)
	}

	b := Body{
		ReviewJobID: scalar(fields["reviewJobId"]),
		UserID:      scalar(fields["userId"]),
	}

	var jobs []map[string]json.RawMessage
	if rawJobs, ok := fields["jobs"]; ok && json.Unmarshal(rawJobs, &jobs) == nil {
		for _, j := range jobs {
			b.Jobs = append(b.Jobs, JobRef{
				ReviewJobID: scalar(j["reviewJobId"]),
				UserID:      scalar(j["userId"]),
			})
		}
	}
	return b, nil
}

// scalar returns a JSON string's value or a JSON number's literal text.
func scalar(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// Targets returns the jobs addressed by the body. A jobs list takes
// precedence; its entries inherit the top-level userId when they carry none.
func (b Body) Targets() []JobRef {
	if len(b.Jobs) == 0 {
		return []JobRef{{ReviewJobID: b.ReviewJobID, UserID: b.UserID}}
	}

	refs := make([]JobRef, len(b.Jobs))
	for i, j := range b.Jobs {
		refs[i] = j
		if refs[i].UserID == "" {
			refs[i].UserID = b.UserID
		}
	}
	return refs
}
