package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JaimeStill/rapid/pkg/executions"
)

// AlertRunningCountUnavailable tags the log record written when a batch is
// admitted against an assumed ceiling. Log-based alarms match on it.
const AlertRunningCountUnavailable = "running_count_unavailable"

// Queue is the subset of queue operations the controller needs.
type Queue interface {
	ChangeVisibility(ctx context.Context, receiptHandle string, timeout time.Duration) error
	Delete(ctx context.Context, receiptHandle string) error
}

// Executions counts and launches workflow executions.
type Executions interface {
	Running(ctx context.Context, limit int) (int, error)
	Start(ctx context.Context, name, input string) (string, error)
}

// ErrorHandler receives signals for jobs abandoned by the controller.
type ErrorHandler interface {
	Signal(ctx context.Context, signal ErrorSignal) error
}

// Settings bound the controller's admission decisions.
type Settings struct {
	MaxConcurrency    int
	MaxQueueAge       time.Duration
	ProcessingTimeout time.Duration
	RetryTimeout      time.Duration
}

// Result pairs a message with its outcome.
type Result struct {
	MessageID string
	Outcome   Outcome
}

// Report summarizes one batch.
type Report struct {
	Running int
	Results []Result
}

// Failures returns the ids of messages that must be redelivered.
func (r Report) Failures() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Outcome.Retry() {
			ids = append(ids, res.MessageID)
		}
	}
	return ids
}

// Controller admits queued review jobs into the workflow engine without
// exceeding the configured number of concurrent executions.
type Controller struct {
	queue      Queue
	executions Executions
	errors     ErrorHandler
	settings   Settings
	metrics    *Metrics
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used to measure queue age.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMetrics records outcomes and slot usage.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// New creates a Controller.
func New(q Queue, ex Executions, eh ErrorHandler, settings Settings, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		queue:      q,
		executions: ex,
		errors:     eh,
		settings:   settings,
		now:        time.Now,
		logger:     logger.With("system", "admission"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle decides an outcome for every message in the batch, in order.
func (c *Controller) Handle(ctx context.Context, batch []Message) Report {
	running := c.running(ctx)
	available := max(c.settings.MaxConcurrency-running, 0)

	c.logger.InfoContext(ctx, "batch received",
		"messages", len(batch),
		"running", running,
		"available", available,
	)
	c.metrics.setAvailable(available)

	report := Report{
		Running: running,
		Results: make([]Result, 0, len(batch)),
	}

	for _, msg := range batch {
		var outcome Outcome
		if available <= 0 {
			outcome = c.deferMessage(ctx, msg)
		} else {
			outcome = c.process(ctx, msg)
			if outcome.Occupies() {
				available--
			}
		}

		c.metrics.observe(outcome)
		report.Results = append(report.Results, Result{MessageID: msg.ID, Outcome: outcome})
	}

	c.metrics.setAvailable(available)
	return report
}

// running returns the running execution count. When the count cannot be
// read it assumes the ceiling so the batch is deferred instead of overrunning.
func (c *Controller) running(ctx context.Context) int {
	n, err := c.executions.Running(ctx, c.settings.MaxConcurrency+1)
	if err != nil {
		c.metrics.countFailed()
		c.logger.ErrorContext(ctx, "running execution count unavailable, assuming ceiling",
			"alert", AlertRunningCountUnavailable,
			"error", err,
			"assumed", c.settings.MaxConcurrency,
		)
		return c.settings.MaxConcurrency
	}
	return n
}

func (c *Controller) deferMessage(ctx context.Context, msg Message) Outcome {
	c.changeVisibility(ctx, msg, c.settings.RetryTimeout)
	c.logger.InfoContext(ctx, "message deferred", "message_id", msg.ID)
	return Deferred
}

func (c *Controller) process(ctx context.Context, msg Message) Outcome {
	body, err := DecodeBody(msg.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "discarding poison message", "message_id", msg.ID, "error", err)
		return Poison
	}

	wait := msg.Wait(c.now())
	if msg.SentAt.IsZero() {
		c.logger.WarnContext(ctx, "message has no sent timestamp, treating as fresh", "message_id", msg.ID)
	}
	if wait >= c.settings.MaxQueueAge {
		c.reap(ctx, msg, body, wait)
		return Reaped
	}

	if msg.ID == "" {
		c.logger.ErrorContext(ctx, "discarding message", "error", ErrMissingMessageID)
		return Poison
	}

	c.changeVisibility(ctx, msg, c.settings.ProcessingTimeout)

	arn, err := c.executions.Start(ctx, msg.ID, msg.Body)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "execution started",
			"message_id", msg.ID,
			"execution_arn", arn,
			"wait", wait,
		)
		return Admitted
	case errors.Is(err, executions.ErrAlreadyExists):
		c.logger.InfoContext(ctx, "execution already exists", "message_id", msg.ID)
		return Duplicate
	default:
		c.logger.ErrorContext(ctx, "execution start failed", "message_id", msg.ID, "error", err)
		c.changeVisibility(ctx, msg, c.settings.RetryTimeout)
		return TransientFailure
	}
}

// reap removes a stale message and notifies the error handler once per job.
func (c *Controller) reap(ctx context.Context, msg Message, body Body, wait time.Duration) {
	c.logger.WarnContext(ctx, "message exceeded maximum queue age",
		"message_id", msg.ID,
		"wait", wait,
		"max_age", c.settings.MaxQueueAge,
	)

	if msg.ReceiptHandle != "" {
		if err := c.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			c.logger.ErrorContext(ctx, "delete stale message failed", "message_id", msg.ID, "error", err)
		}
	}

	for _, ref := range body.Targets() {
		if ref.ReviewJobID == "" {
			c.logger.ErrorContext(ctx, "cannot signal queue timeout", "message_id", msg.ID, "error", ErrMissingJobID)
			continue
		}
		if err := c.errors.Signal(ctx, QueueTimeout(ref)); err != nil {
			c.logger.ErrorContext(ctx, "queue timeout signal failed",
				"message_id", msg.ID,
				"review_job_id", ref.ReviewJobID,
				"error", err,
			)
		}
	}
}

// changeVisibility failures are logged only; redelivery timing is best effort.
func (c *Controller) changeVisibility(ctx context.Context, msg Message, timeout time.Duration) {
	if msg.ReceiptHandle == "" {
		return
	}
	if err := c.queue.ChangeVisibility(ctx, msg.ReceiptHandle, timeout); err != nil {
		c.logger.WarnContext(ctx, "change visibility failed",
			"message_id", msg.ID,
			"timeout", timeout,
			"error", err,
		)
	}
}
