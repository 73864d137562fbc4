package admission

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/JaimeStill/rapid/pkg/queue"
)

const sentTimestampAttribute = "SentTimestamp"

// FromSQSEvent converts an event source batch into controller messages.
func FromSQSEvent(event events.SQSEvent) []Message {
	batch := make([]Message, len(event.Records))
	for i, rec := range event.Records {
		sentAt, _ := queue.ParseSentTimestamp(rec.Attributes[sentTimestampAttribute])
		batch[i] = Message{
			ID:            rec.MessageId,
			ReceiptHandle: rec.ReceiptHandle,
			Body:          rec.Body,
			SentAt:        sentAt,
		}
	}
	return batch
}

// SQSResponse reports the messages to redeliver as batch item failures.
// Every other message is acknowledged by the event source.
func (r Report) SQSResponse() events.SQSEventResponse {
	resp := events.SQSEventResponse{
		BatchItemFailures: []events.SQSBatchItemFailure{},
	}
	for _, id := range r.Failures() {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return resp
}

// HandleSQSEvent is the function handler for queue-triggered invocations.
func (c *Controller) HandleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	report := c.Handle(ctx, FromSQSEvent(event))
	return report.SQSResponse(), nil
}

// Flusher delivers recorded metrics somewhere that outlives the invocation.
type Flusher interface {
	Flush(ctx context.Context) error
}

// LambdaHandler wraps HandleSQSEvent so that metrics are flushed after every
// batch. The execution environment may be frozen or discarded once the
// handler returns, so nothing can be scraped from it. A flush error is logged
// and never fails the batch. A nil f disables flushing.
func (c *Controller) LambdaHandler(f Flusher) func(context.Context, events.SQSEvent) (events.SQSEventResponse, error) {
	if f == nil {
		return c.HandleSQSEvent
	}
	return func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
		resp, err := c.HandleSQSEvent(ctx, event)
		if ferr := f.Flush(ctx); ferr != nil {
			c.logger.WarnContext(ctx, "metrics flush failed", "error", ferr)
		}
		return resp, err
	}
}
