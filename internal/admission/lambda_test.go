package admission_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/rapid/internal/admission"
)

func TestFromSQSEvent(t *testing.T) {
	sent := now.Add(-time.Hour)
	event := events.SQSEvent{Records: []events.SQSMessage{
		{
			MessageId:     "m1",
			ReceiptHandle: "rh-1",
			Body:          `{"reviewJobId":"j"}`,
			Attributes:    map[string]string{"SentTimestamp": strconv.FormatInt(sent.UnixMilli(), 10)},
		},
		{MessageId: "m2", ReceiptHandle: "rh-2", Body: "{}"},
	}}

	batch := admission.FromSQSEvent(event)

	if len(batch) != 2 {
		t.Fatalf("len = %d, want 2", len(batch))
	}
	if !batch[0].SentAt.Equal(sent) {
		t.Errorf("SentAt = %v, want %v", batch[0].SentAt, sent)
	}
	if batch[0].ReceiptHandle != "rh-1" || batch[0].Body != `{"reviewJobId":"j"}` {
		t.Errorf("batch[0] = %+v", batch[0])
	}
	if !batch[1].SentAt.IsZero() {
		t.Errorf("SentAt = %v, want zero", batch[1].SentAt)
	}
}

func TestHandleSQSEvent(t *testing.T) {
	h := newHarness(1)
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", ReceiptHandle: "rh-1", Body: `{"reviewJobId":"a"}`},
		{MessageId: "m2", ReceiptHandle: "rh-2", Body: `{"reviewJobId":"b"}`},
		{MessageId: "m3", ReceiptHandle: "rh-3", Body: `{"reviewJobId":"c"}`},
	}}

	resp, err := h.controller.HandleSQSEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleSQSEvent: %v", err)
	}

	want := []events.SQSBatchItemFailure{{ItemIdentifier: "m2"}, {ItemIdentifier: "m3"}}
	if len(resp.BatchItemFailures) != len(want) {
		t.Fatalf("failures = %+v, want %+v", resp.BatchItemFailures, want)
	}
	for i := range want {
		if resp.BatchItemFailures[i] != want[i] {
			t.Errorf("failures[%d] = %+v, want %+v", i, resp.BatchItemFailures[i], want[i])
		}
	}
}

func TestSQSResponseEmpty(t *testing.T) {
	resp := admission.Report{}.SQSResponse()
	if resp.BatchItemFailures == nil || len(resp.BatchItemFailures) != 0 {
		t.Errorf("BatchItemFailures = %#v, want empty slice", resp.BatchItemFailures)
	}
}

type fakeFlusher struct {
	reg     *prometheus.Registry
	err     error
	flushes int
	failed  float64
}

func (f *fakeFlusher) Flush(ctx context.Context) error {
	f.flushes++
	families, _ := f.reg.Gather()
	for _, mf := range families {
		if mf.GetName() == "rapid_admission_running_count_failures_total" {
			f.failed = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return f.err
}

func TestLambdaHandlerFlushesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(0, admission.WithMetrics(admission.NewMetrics(reg)))
	h.executions.runningErr = errThrottled
	flusher := &fakeFlusher{reg: reg}
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", ReceiptHandle: "rh-1", Body: `{"reviewJobId":"a"}`},
	}}

	handler := h.controller.LambdaHandler(flusher)
	resp, err := handler(context.Background(), event)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	if len(resp.BatchItemFailures) != 1 {
		t.Errorf("failures = %+v, want m1 deferred", resp.BatchItemFailures)
	}
	if flusher.flushes != 1 {
		t.Errorf("flushes = %d, want 1", flusher.flushes)
	}
	if flusher.failed != 1 {
		t.Errorf("flushed count failures = %v, want 1", flusher.failed)
	}
}

func TestLambdaHandlerFlushErrorIgnored(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(1, admission.WithMetrics(admission.NewMetrics(reg)))
	flusher := &fakeFlusher{reg: reg, err: errors.New("gateway down")}
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", ReceiptHandle: "rh-1", Body: `{"reviewJobId":"a"}`},
	}}

	resp, err := h.controller.LambdaHandler(flusher)(context.Background(), event)
	if err != nil {
		t.Fatalf("handler error = %v, want nil", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Errorf("failures = %+v, want none", resp.BatchItemFailures)
	}
	if flusher.flushes != 1 {
		t.Errorf("flushes = %d, want 1", flusher.flushes)
	}
}

func TestLambdaHandlerWithoutFlusher(t *testing.T) {
	h := newHarness(1)
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", ReceiptHandle: "rh-1", Body: `{"reviewJobId":"a"}`},
	}}

	resp, err := h.controller.LambdaHandler(nil)(context.Background(), event)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Errorf("failures = %+v, want none", resp.BatchItemFailures)
	}
}

func TestPushFlusher(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	h := newHarness(0, admission.WithMetrics(admission.NewMetrics(reg)))
	h.executions.runningErr = errThrottled
	h.controller.Handle(context.Background(), []admission.Message{fresh("a")})

	f := admission.NewPushFlusher(srv.URL, "rapid_dispatcher", "env-1", reg)
	if err := f.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Errorf("method = %s, want PUT", method)
	}
	if want := "/metrics/job/rapid_dispatcher/instance/env-1"; path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	if !strings.Contains(body, "rapid_admission_running_count_failures_total") {
		t.Errorf("pushed body missing running count failures:\n%s", body)
	}
}
