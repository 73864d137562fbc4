package review

import (
	"context"
	"fmt"
)

// Publisher sends one keyed event.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// ResultEvent announces a completed review.
type ResultEvent struct {
	ReviewJobID    string `json:"reviewJobId"`
	CheckID        string `json:"checkId"`
	ReviewResultID string `json:"reviewResultId"`
	Result         Result `json:"result"`
}

// EventSink publishes every result keyed by its reviewResultId.
type EventSink struct {
	pub Publisher
}

// NewEventSink wraps pub as a Sink.
func NewEventSink(pub Publisher) *EventSink {
	return &EventSink{pub: pub}
}

func (s *EventSink) Deliver(ctx context.Context, job Job, r Result) error {
	event := ResultEvent{
		ReviewJobID:    job.ReviewJobID,
		CheckID:        job.CheckID,
		ReviewResultID: job.ReviewResultID,
		Result:         r,
	}
	if err := s.pub.Publish(ctx, job.ReviewResultID, event); err != nil {
		return fmt.Errorf("publish review result: %w", err)
	}
	return nil
}
