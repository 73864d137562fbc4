package admission

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/rapid/pkg/queue"
)

// Receiver pulls batches from the queue.
type Receiver interface {
	Receive(ctx context.Context) ([]queue.Message, error)
}

// Poller drives a Controller from a long-polling loop, deleting every
// message that is not marked for redelivery.
type Poller struct {
	receiver   Receiver
	queue      Queue
	controller *Controller
	backoff    time.Duration
	logger     *slog.Logger
}

// NewPoller creates a Poller. backoff is the pause after a failed receive.
func NewPoller(rcv Receiver, q Queue, c *Controller, backoff time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		receiver:   rcv,
		queue:      q,
		controller: c,
		backoff:    backoff,
		logger:     logger.With("system", "poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started")
	defer p.logger.Info("poller stopped")

	for ctx.Err() == nil {
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.ErrorContext(ctx, "receive failed", "error", err, "backoff", p.backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
		}
	}
}

// Poll receives and handles a single batch.
func (p *Poller) Poll(ctx context.Context) (Report, error) {
	received, err := p.receiver.Receive(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(received) == 0 {
		return Report{}, nil
	}

	batch := make([]Message, len(received))
	receipts := make(map[string]string, len(received))
	for i, m := range received {
		batch[i] = Message(m)
		receipts[m.ID] = m.ReceiptHandle
	}

	report := p.controller.Handle(ctx, batch)

	for _, res := range report.Results {
		if res.Outcome.Retry() {
			continue
		}
		handle := receipts[res.MessageID]
		if handle == "" {
			continue
		}
		if err := p.queue.Delete(ctx, handle); err != nil {
			p.logger.ErrorContext(ctx, "acknowledge failed",
				"message_id", res.MessageID,
				"outcome", res.Outcome.String(),
				"error", err,
			)
		}
	}

	return report, nil
}
