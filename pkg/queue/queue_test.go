package queue_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/JaimeStill/rapid/pkg/queue"
)

type fakeSQS struct {
	visibility []*sqs.ChangeMessageVisibilityInput
	deleted    []*sqs.DeleteMessageInput
	received   []types.Message
}

func (f *fakeSQS) ChangeMessageVisibility(_ context.Context, in *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.visibility = append(f.visibility, in)
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, in)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{Messages: f.received}, nil
}

func newClient(api queue.API) *queue.Client {
	cfg := &queue.Config{URL: "https://sqs.local/review", WaitTime: "20s", MaxMessages: 10}
	return queue.NewFromAPI(api, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestChangeVisibilitySeconds(t *testing.T) {
	api := &fakeSQS{}
	c := newClient(api)

	if err := c.ChangeVisibility(context.Background(), "rh-1", 15*time.Second); err != nil {
		t.Fatalf("ChangeVisibility: %v", err)
	}

	if len(api.visibility) != 1 {
		t.Fatalf("calls = %d, want 1", len(api.visibility))
	}
	in := api.visibility[0]
	if in.VisibilityTimeout != 15 {
		t.Errorf("VisibilityTimeout = %d, want 15", in.VisibilityTimeout)
	}
	if aws.ToString(in.ReceiptHandle) != "rh-1" {
		t.Errorf("ReceiptHandle = %q, want rh-1", aws.ToString(in.ReceiptHandle))
	}
}

func TestReceiveResolvesSentTimestamp(t *testing.T) {
	api := &fakeSQS{
		received: []types.Message{
			{
				MessageId:     aws.String("m-1"),
				ReceiptHandle: aws.String("rh-1"),
				Body:          aws.String(`{"reviewJobId":"job-1"}`),
				Attributes:    map[string]string{"SentTimestamp": "1700000000000"},
			},
			{
				MessageId:     aws.String("m-2"),
				ReceiptHandle: aws.String("rh-2"),
				Body:          aws.String(`{}`),
			},
		},
	}

	msgs, err := newClient(api).Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if want := time.UnixMilli(1700000000000); !msgs[0].SentAt.Equal(want) {
		t.Errorf("SentAt = %v, want %v", msgs[0].SentAt, want)
	}
	if !msgs[1].SentAt.IsZero() {
		t.Errorf("SentAt = %v, want zero", msgs[1].SentAt)
	}
}

func TestParseSentTimestamp(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
	}{
		{"1700000000000", true},
		{"", false},
		{"yesterday", false},
	}

	for _, tt := range tests {
		if _, ok := queue.ParseSentTimestamp(tt.input); ok != tt.wantOK {
			t.Errorf("ParseSentTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     queue.Config
		wantErr bool
	}{
		{"defaults with url", queue.Config{URL: "https://sqs.local/q"}, false},
		{"missing url", queue.Config{}, true},
		{"wait time too long", queue.Config{URL: "u", WaitTime: "30s"}, true},
		{"too many messages", queue.Config{URL: "u", MaxMessages: 11}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
