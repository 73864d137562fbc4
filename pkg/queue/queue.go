// Package queue wraps the SQS operations the admission controller relies on:
// visibility changes, deletes, and long-poll receives.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// API is the subset of the SQS client used by Client.
type API interface {
	ChangeMessageVisibility(ctx context.Context, in *sqs.ChangeMessageVisibilityInput, opts ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
}

// Message is a received queue message with its enqueue time resolved.
// SentAt is zero when the queue did not report a SentTimestamp.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          string
	SentAt        time.Time
}

// Client performs queue operations against a single queue URL.
type Client struct {
	api         API
	url         string
	waitTime    time.Duration
	maxMessages int32
	logger      *slog.Logger
}

// New creates a Client backed by an SQS client built from awsCfg.
func New(awsCfg aws.Config, cfg *Config, logger *slog.Logger) *Client {
	return NewFromAPI(sqs.NewFromConfig(awsCfg), cfg, logger)
}

// NewFromAPI creates a Client over an existing API implementation.
func NewFromAPI(api API, cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		api:         api,
		url:         cfg.URL,
		waitTime:    cfg.WaitTimeDuration(),
		maxMessages: int32(cfg.MaxMessages),
		logger:      logger.With("system", "queue"),
	}
}

// ChangeVisibility sets the remaining visibility timeout of a received message.
func (c *Client) ChangeVisibility(ctx context.Context, receiptHandle string, timeout time.Duration) error {
	_, err := c.api.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(c.url),
		ReceiptHandle:     aws.String(receiptHandle),
		VisibilityTimeout: int32(timeout / time.Second),
	})
	if err != nil {
		return fmt.Errorf("change visibility: %w", err)
	}
	return nil
}

// Delete removes a received message from the queue.
func (c *Client) Delete(ctx context.Context, receiptHandle string) error {
	_, err := c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.url),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// Receive long-polls for up to MaxMessages messages.
func (c *Client) Receive(ctx context.Context) ([]Message, error) {
	out, err := c.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.url),
		MaxNumberOfMessages: c.maxMessages,
		WaitTimeSeconds:     int32(c.waitTime / time.Second),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameSentTimestamp,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		sentAt, ok := ParseSentTimestamp(m.Attributes[string(types.MessageSystemAttributeNameSentTimestamp)])
		if !ok {
			c.logger.WarnContext(ctx, "message missing sent timestamp", "message_id", aws.ToString(m.MessageId))
		}
		messages = append(messages, Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
			SentAt:        sentAt,
		})
	}

	return messages, nil
}

// ParseSentTimestamp converts an SQS SentTimestamp attribute (epoch
// milliseconds) into a time.Time.
func ParseSentTimestamp(attr string) (time.Time, bool) {
	if attr == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(attr, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
