package admission_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/rapid/internal/admission"
	"github.com/JaimeStill/rapid/pkg/executions"
)

var (
	now      = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settings = admission.Settings{
		MaxConcurrency:    2,
		MaxQueueAge:       24 * time.Hour,
		ProcessingTimeout: 20 * time.Minute,
		RetryTimeout:      15 * time.Second,
	}
	errThrottled = errors.New("throttled")
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type visibilityChange struct {
	receipt string
	timeout time.Duration
}

type fakeQueue struct {
	mu            sync.Mutex
	visibility    []visibilityChange
	deleted       []string
	visibilityErr error
	deleteErr     error
}

func (q *fakeQueue) ChangeVisibility(_ context.Context, receipt string, timeout time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visibility = append(q.visibility, visibilityChange{receipt, timeout})
	return q.visibilityErr
}

func (q *fakeQueue) Delete(_ context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, receipt)
	return q.deleteErr
}

func (q *fakeQueue) timeoutsFor(receipt string) []time.Duration {
	var out []time.Duration
	for _, v := range q.visibility {
		if v.receipt == receipt {
			out = append(out, v.timeout)
		}
	}
	return out
}

// fakeExecutions keeps the set of started names, rejecting repeats the way
// the workflow engine does.
type fakeExecutions struct {
	running    int
	runningErr error
	startErr   map[string]error
	started    map[string]string
	starts     []string
	limits     []int
}

func newFakeExecutions(running int) *fakeExecutions {
	return &fakeExecutions{
		running:  running,
		startErr: map[string]error{},
		started:  map[string]string{},
	}
}

func (e *fakeExecutions) Running(_ context.Context, limit int) (int, error) {
	e.limits = append(e.limits, limit)
	return e.running, e.runningErr
}

func (e *fakeExecutions) Start(_ context.Context, name, input string) (string, error) {
	e.starts = append(e.starts, name)
	if err := e.startErr[name]; err != nil {
		return "", err
	}
	if _, ok := e.started[name]; ok {
		return "", fmt.Errorf("%w: %s", executions.ErrAlreadyExists, name)
	}
	e.started[name] = input
	return "arn:aws:states:us-west-2:123456789012:execution:review:" + name, nil
}

type fakeErrorHandler struct {
	signals []admission.ErrorSignal
	err     error
}

func (h *fakeErrorHandler) Signal(_ context.Context, s admission.ErrorSignal) error {
	h.signals = append(h.signals, s)
	return h.err
}

func fresh(id string) admission.Message {
	return admission.Message{
		ID:            id,
		ReceiptHandle: "rh-" + id,
		Body:          fmt.Sprintf(`{"reviewJobId":"job-%s","userId":"user-1"}`, id),
		SentAt:        now.Add(-time.Minute),
	}
}

func outcomes(report admission.Report) []admission.Outcome {
	out := make([]admission.Outcome, len(report.Results))
	for i, r := range report.Results {
		out[i] = r.Outcome
	}
	return out
}

func count(report admission.Report, outcome admission.Outcome) int {
	n := 0
	for _, r := range report.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// gathered returns the value of the named metric whose labels include every
// name/value pair in labels.
func gathered(t *testing.T, reg *prometheus.Registry, name string, labels ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !hasLabels(m.GetLabel(), labels) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not gathered", name, labels)
	return 0
}

func hasLabels[P interface {
	GetName() string
	GetValue() string
}](pairs []P, want []string) bool {
	for i := 0; i+1 < len(want); i += 2 {
		found := false
		for _, p := range pairs {
			if p.GetName() == want[i] && p.GetValue() == want[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type harness struct {
	queue      *fakeQueue
	executions *fakeExecutions
	errors     *fakeErrorHandler
	controller *admission.Controller
}

func newHarness(running int, opts ...admission.Option) *harness {
	h := &harness{
		queue:      &fakeQueue{},
		executions: newFakeExecutions(running),
		errors:     &fakeErrorHandler{},
	}
	opts = append([]admission.Option{admission.WithClock(func() time.Time { return now })}, opts...)
	h.controller = admission.New(h.queue, h.executions, h.errors, settings, discard(), opts...)
	return h
}
