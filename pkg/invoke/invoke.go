// Package invoke calls other Lambda functions with JSON payloads.
package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

var (
	// ErrFunctionError indicates the invoked function returned an unhandled error.
	ErrFunctionError = errors.New("function returned an error")
	// ErrNoFunction indicates an empty function name.
	ErrNoFunction = errors.New("function name required")
)

// API is the subset of the Lambda client used by Client.
type API interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, opts ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Client invokes Lambda functions synchronously.
type Client struct {
	api    API
	logger *slog.Logger
}

// New creates a Client backed by a Lambda client built from awsCfg.
func New(awsCfg aws.Config, logger *slog.Logger) *Client {
	return NewFromAPI(lambda.NewFromConfig(awsCfg), logger)
}

// NewFromAPI creates a Client over an existing API implementation.
func NewFromAPI(api API, logger *slog.Logger) *Client {
	return &Client{
		api:    api,
		logger: logger.With("system", "invoke"),
	}
}

// Invoke marshals payload to JSON, calls function with the RequestResponse
// invocation type, and returns the raw response payload.
func (c *Client) Invoke(ctx context.Context, function string, payload any) ([]byte, error) {
	if function == "" {
		return nil, ErrNoFunction
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(function),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", function, err)
	}

	if out.FunctionError != nil {
		return out.Payload, fmt.Errorf("%w: %s: %s", ErrFunctionError, function, aws.ToString(out.FunctionError))
	}

	c.logger.DebugContext(ctx, "function invoked", "function", function, "status", out.StatusCode)
	return out.Payload, nil
}
