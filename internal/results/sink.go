package results

import (
	"context"
	"fmt"

	"github.com/JaimeStill/rapid/internal/review"
)

// Sink stores every result delivered by the review processor.
type Sink struct {
	sys System
}

// NewSink wraps sys as a review.Sink.
func NewSink(sys System) *Sink {
	return &Sink{sys: sys}
}

func (s *Sink) Deliver(ctx context.Context, job review.Job, r review.Result) error {
	cmd, err := NewCreateCommand(job, r)
	if err != nil {
		return err
	}
	if _, err := s.sys.Create(ctx, cmd); err != nil {
		return fmt.Errorf("store review result: %w", err)
	}
	return nil
}
