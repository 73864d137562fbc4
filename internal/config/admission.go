package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/rapid/internal/admission"
	"github.com/JaimeStill/rapid/pkg/queue"
)

const (
	EnvStateMachineArn        = "STATE_MACHINE_ARN"
	EnvReviewQueueURL         = "REVIEW_QUEUE_URL"
	EnvErrorLambdaName        = "ERROR_LAMBDA_NAME"
	EnvReviewMaxConcurrency   = "REVIEW_MAX_CONCURRENCY"
	EnvMaxQueueCount          = "MAX_QUEUE_COUNT"
	EnvVisibilityTimeoutProc  = "VISIBILITY_TIMEOUT_PROCESSING"
	EnvVisibilityTimeoutRetry = "VISIBILITY_TIMEOUT_RETRY"
	EnvDispatcherMode         = "RAPID_DISPATCHER_MODE"
	EnvDispatcherPollBackoff  = "RAPID_DISPATCHER_POLL_BACKOFF"
	EnvDispatcherMetricsPush  = "RAPID_DISPATCHER_METRICS_PUSH_URL"
	envLambdaRuntimeAPI       = "AWS_LAMBDA_RUNTIME_API"
)

// Dispatcher run modes.
const (
	ModeLambda = "lambda"
	ModePoll   = "poll"
)

var queueEnv = &queue.Env{
	URL:         EnvReviewQueueURL,
	WaitTime:    "RAPID_QUEUE_WAIT_TIME",
	MaxMessages: "RAPID_QUEUE_MAX_MESSAGES",
}

// AdmissionConfig holds the dispatcher settings. MAX_QUEUE_COUNT is read in
// milliseconds and the visibility timeouts in seconds.
type AdmissionConfig struct {
	Mode              string       `toml:"mode"`
	StateMachineArn   string       `toml:"state_machine_arn"`
	ErrorFunction     string       `toml:"error_function"`
	MaxConcurrency    int          `toml:"max_concurrency"`
	MaxQueueAge       string       `toml:"max_queue_age"`
	ProcessingTimeout string       `toml:"processing_timeout"`
	RetryTimeout      string       `toml:"retry_timeout"`
	PollBackoff       string       `toml:"poll_backoff"`
	MetricsPushURL    string       `toml:"metrics_push_url"`
	Queue             queue.Config `toml:"queue"`
}

// Settings returns the controller settings.
func (c *AdmissionConfig) Settings() admission.Settings {
	return admission.Settings{
		MaxConcurrency:    c.MaxConcurrency,
		MaxQueueAge:       duration(c.MaxQueueAge),
		ProcessingTimeout: duration(c.ProcessingTimeout),
		RetryTimeout:      duration(c.RetryTimeout),
	}
}

// PollBackoffDuration returns PollBackoff as a time.Duration.
func (c *AdmissionConfig) PollBackoffDuration() time.Duration {
	return duration(c.PollBackoff)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AdmissionConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Queue.Finalize(queueEnv); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *AdmissionConfig) Merge(overlay *AdmissionConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.StateMachineArn != "" {
		c.StateMachineArn = overlay.StateMachineArn
	}
	if overlay.ErrorFunction != "" {
		c.ErrorFunction = overlay.ErrorFunction
	}
	if overlay.MaxConcurrency != 0 {
		c.MaxConcurrency = overlay.MaxConcurrency
	}
	if overlay.MaxQueueAge != "" {
		c.MaxQueueAge = overlay.MaxQueueAge
	}
	if overlay.ProcessingTimeout != "" {
		c.ProcessingTimeout = overlay.ProcessingTimeout
	}
	if overlay.RetryTimeout != "" {
		c.RetryTimeout = overlay.RetryTimeout
	}
	if overlay.PollBackoff != "" {
		c.PollBackoff = overlay.PollBackoff
	}
	if overlay.MetricsPushURL != "" {
		c.MetricsPushURL = overlay.MetricsPushURL
	}
	c.Queue.Merge(&overlay.Queue)
}

func (c *AdmissionConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModePoll
		if os.Getenv(envLambdaRuntimeAPI) != "" {
			c.Mode = ModeLambda
		}
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 2
	}
	if c.MaxQueueAge == "" {
		c.MaxQueueAge = "24h"
	}
	if c.ProcessingTimeout == "" {
		c.ProcessingTimeout = "1200s"
	}
	if c.RetryTimeout == "" {
		c.RetryTimeout = "15s"
	}
	if c.PollBackoff == "" {
		c.PollBackoff = "5s"
	}
}

func (c *AdmissionConfig) loadEnv() error {
	if v := os.Getenv(EnvDispatcherMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvStateMachineArn); v != "" {
		c.StateMachineArn = v
	}
	if v := os.Getenv(EnvErrorLambdaName); v != "" {
		c.ErrorFunction = v
	}
	if v := os.Getenv(EnvReviewMaxConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid max_concurrency %q from %s: %w", v, EnvReviewMaxConcurrency, err)
		}
		c.MaxConcurrency = n
	}
	if v := os.Getenv(EnvMaxQueueCount); v != "" {
		c.MaxQueueAge = v + "ms"
	}
	if v := os.Getenv(EnvVisibilityTimeoutProc); v != "" {
		c.ProcessingTimeout = v + "s"
	}
	if v := os.Getenv(EnvVisibilityTimeoutRetry); v != "" {
		c.RetryTimeout = v + "s"
	}
	if v := os.Getenv(EnvDispatcherPollBackoff); v != "" {
		c.PollBackoff = v
	}
	if v := os.Getenv(EnvDispatcherMetricsPush); v != "" {
		c.MetricsPushURL = v
	}
	return nil
}

func (c *AdmissionConfig) validate() error {
	if c.Mode != ModeLambda && c.Mode != ModePoll {
		return fmt.Errorf("invalid mode %q: must be lambda or poll", c.Mode)
	}
	if c.StateMachineArn == "" {
		return fmt.Errorf("state_machine_arn required")
	}
	if c.ErrorFunction == "" {
		return fmt.Errorf("error_function required")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive: %d", c.MaxConcurrency)
	}
	for name, v := range map[string]string{
		"max_queue_age":      c.MaxQueueAge,
		"processing_timeout": c.ProcessingTimeout,
		"retry_timeout":      c.RetryTimeout,
		"poll_backoff":       c.PollBackoff,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive: %s", name, v)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
