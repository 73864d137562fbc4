package review_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/JaimeStill/rapid/internal/review"
)

type fakePublisher struct {
	key   string
	value []byte
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, key string, v any) error {
	if p.err != nil {
		return p.err
	}
	p.key = key
	var err error
	p.value, err = json.Marshal(v)
	return err
}

func TestEventSinkDeliver(t *testing.T) {
	pub := &fakePublisher{}
	job := review.Job{ReviewJobID: "job-1", CheckID: "check-1", ReviewResultID: "rr-1"}
	result := review.Result{
		Result:     review.Fail,
		Confidence: 0.7,
		ReviewType: review.TypePDF,
		PDF:        &review.PDFFields{ExtractedText: review.TextExtract(""), PageNumber: 1},
	}

	if err := review.NewEventSink(pub).Deliver(context.Background(), job, result); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if pub.key != "rr-1" {
		t.Errorf("key = %q, want rr-1", pub.key)
	}

	var event struct {
		ReviewJobID    string         `json:"reviewJobId"`
		ReviewResultID string         `json:"reviewResultId"`
		Result         map[string]any `json:"result"`
	}
	if err := json.Unmarshal(pub.value, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.ReviewJobID != "job-1" || event.ReviewResultID != "rr-1" {
		t.Errorf("event = %+v", event)
	}
	if event.Result["result"] != "fail" || event.Result["reviewType"] != "PDF" {
		t.Errorf("event.result = %v", event.Result)
	}
}

func TestEventSinkDeliverError(t *testing.T) {
	errBroker := errors.New("broker down")
	sink := review.NewEventSink(&fakePublisher{err: errBroker})

	err := sink.Deliver(context.Background(), review.Job{ReviewResultID: "rr-1"}, review.Result{ReviewType: review.TypePDF})
	if !errors.Is(err, errBroker) {
		t.Errorf("Deliver() error = %v, want %v", err, errBroker)
	}
}
