package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/rapid/internal/admission"
	"github.com/JaimeStill/rapid/internal/config"
	"github.com/JaimeStill/rapid/internal/infrastructure"
	"github.com/JaimeStill/rapid/pkg/executions"
	"github.com/JaimeStill/rapid/pkg/invoke"
	"github.com/JaimeStill/rapid/pkg/module"
	"github.com/JaimeStill/rapid/pkg/queue"
)

type Dispatcher struct {
	infra      *infrastructure.Infrastructure
	controller *admission.Controller
	poller     *admission.Poller
	flusher    admission.Flusher
	http       *infrastructure.HTTPServer
}

// envLogStream names the Lambda execution environment; it keys pushed metrics.
const envLogStream = "AWS_LAMBDA_LOG_STREAM_NAME"

func NewDispatcher(ctx context.Context, cfg *config.Config) (*Dispatcher, error) {
	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger := infra.Logger.With("module", "dispatcher")
	adm := &cfg.Admission

	q := queue.New(infra.AWS, &adm.Queue, logger)
	ex := executions.New(infra.AWS, adm.StateMachineArn, logger)
	eh := admission.NewErrorHandler(invoke.New(infra.AWS, logger), adm.ErrorFunction)

	d := &Dispatcher{infra: infra}

	reg := prometheus.NewRegistry()
	d.controller = admission.New(
		q, ex, eh, adm.Settings(), logger,
		admission.WithMetrics(admission.NewMetrics(reg)),
	)

	if adm.Mode == config.ModeLambda {
		if adm.MetricsPushURL != "" {
			d.flusher = admission.NewPushFlusher(adm.MetricsPushURL, "rapid_dispatcher", os.Getenv(envLogStream), reg)
		}
		logger.Info(
			"dispatcher initialized",
			"mode", adm.Mode,
			"metrics_push", adm.MetricsPushURL != "",
			"version", cfg.Version,
		)
		return d, nil
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.poller = admission.NewPoller(q, q, d.controller, adm.PollBackoffDuration(), logger)

	router := module.NewRouter()
	router.Probes(infra.Lifecycle)
	router.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	d.http = infrastructure.NewHTTPServer(&cfg.Server, router, logger)

	logger.Info(
		"dispatcher initialized",
		"mode", adm.Mode,
		"queue", adm.Queue.URL,
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
	)

	return d, nil
}

// LambdaHandler returns the queue event handler for Lambda mode.
func (d *Dispatcher) LambdaHandler() func(context.Context, events.SQSEvent) (events.SQSEventResponse, error) {
	return d.controller.LambdaHandler(d.flusher)
}

// Start runs the poller and the probe server. Lambda mode never calls it.
func (d *Dispatcher) Start() error {
	if err := d.infra.Start(); err != nil {
		return err
	}
	if err := d.http.Start(d.infra.Lifecycle); err != nil {
		return err
	}

	if err := d.infra.Lifecycle.WaitForStartup(); err != nil {
		return err
	}
	d.infra.Lifecycle.Go(d.poller.Run)

	return nil
}

func (d *Dispatcher) Shutdown(timeout time.Duration) error {
	d.infra.Logger.Info("initiating shutdown")
	return d.infra.Lifecycle.Shutdown(timeout)
}
