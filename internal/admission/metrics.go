package admission

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics exposes admission counters. A nil *Metrics records nothing.
type Metrics struct {
	outcomes      *prometheus.CounterVec
	available     prometheus.Gauge
	countFailures prometheus.Counter
}

// NewMetrics creates admission metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rapid",
			Subsystem: "admission",
			Name:      "outcomes_total",
			Help:      "Queue messages by admission outcome.",
		}, []string{"outcome"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rapid",
			Subsystem: "admission",
			Name:      "available_slots",
			Help:      "Execution slots left after the most recent batch.",
		}),
		countFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rapid",
			Subsystem: "admission",
			Name:      "running_count_failures_total",
			Help:      "Batches admitted against an assumed ceiling because the running count failed.",
		}),
	}

	for _, o := range Outcomes() {
		m.outcomes.WithLabelValues(o.String())
	}

	reg.MustRegister(m.outcomes, m.available, m.countFailures)
	return m
}

func (m *Metrics) observe(o Outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) setAvailable(n int) {
	if m == nil {
		return
	}
	m.available.Set(float64(n))
}

func (m *Metrics) countFailed() {
	if m == nil {
		return
	}
	m.countFailures.Inc()
}

// PushFlusher replaces the metrics held by a Pushgateway for one job and
// instance with everything gathered from a registry.
type PushFlusher struct {
	pusher *push.Pusher
}

// NewPushFlusher returns a flusher that pushes g to the gateway at url.
// Each instance gets its own grouping so concurrent environments do not
// overwrite each other.
func NewPushFlusher(url, job, instance string, g prometheus.Gatherer) *PushFlusher {
	p := push.New(url, job).Gatherer(g)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	return &PushFlusher{pusher: p}
}

// Flush pushes the current metric values.
func (f *PushFlusher) Flush(ctx context.Context) error {
	return f.pusher.PushContext(ctx)
}
