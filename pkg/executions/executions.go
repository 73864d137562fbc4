// Package executions wraps the Step Functions operations used to count and
// launch review workflow executions.
package executions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/aws/smithy-go"
)

const codeAlreadyExists = "ExecutionAlreadyExists"

var (
	// ErrAlreadyExists indicates an execution with the same name was already started.
	ErrAlreadyExists = errors.New("execution already exists")
	// ErrNoStateMachine indicates the client was built without a state machine ARN.
	ErrNoStateMachine = errors.New("state machine arn required")
)

// API is the subset of the Step Functions client used by Client.
type API interface {
	ListExecutions(ctx context.Context, in *sfn.ListExecutionsInput, opts ...func(*sfn.Options)) (*sfn.ListExecutionsOutput, error)
	StartExecution(ctx context.Context, in *sfn.StartExecutionInput, opts ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// Client counts and starts executions of a single state machine.
type Client struct {
	api             API
	stateMachineArn string
	logger          *slog.Logger
}

// New creates a Client backed by a Step Functions client built from awsCfg.
func New(awsCfg aws.Config, stateMachineArn string, logger *slog.Logger) *Client {
	return NewFromAPI(sfn.NewFromConfig(awsCfg), stateMachineArn, logger)
}

// NewFromAPI creates a Client over an existing API implementation.
func NewFromAPI(api API, stateMachineArn string, logger *slog.Logger) *Client {
	return &Client{
		api:             api,
		stateMachineArn: stateMachineArn,
		logger:          logger.With("system", "executions"),
	}
}

// Running returns the number of RUNNING executions, reading at most limit
// entries. The result saturates at limit.
func (c *Client) Running(ctx context.Context, limit int) (int, error) {
	if c.stateMachineArn == "" {
		return 0, ErrNoStateMachine
	}

	out, err := c.api.ListExecutions(ctx, &sfn.ListExecutionsInput{
		StateMachineArn: aws.String(c.stateMachineArn),
		StatusFilter:    types.ExecutionStatusRunning,
		MaxResults:      int32(limit),
	})
	if err != nil {
		return 0, fmt.Errorf("list running executions: %w", err)
	}

	return len(out.Executions), nil
}

// Start launches an execution named name with the given JSON input.
// Returns ErrAlreadyExists when the name was used before.
func (c *Client) Start(ctx context.Context, name, input string) (string, error) {
	if c.stateMachineArn == "" {
		return "", ErrNoStateMachine
	}

	out, err := c.api.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(c.stateMachineArn),
		Name:            aws.String(name),
		Input:           aws.String(input),
	})
	if err != nil {
		if IsAlreadyExists(err) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return "", fmt.Errorf("start execution %s: %w", name, err)
	}

	arn := aws.ToString(out.ExecutionArn)
	c.logger.InfoContext(ctx, "execution started", "name", name, "execution_arn", arn)
	return arn, nil
}

// IsAlreadyExists reports whether err is the service's duplicate-name fault.
func IsAlreadyExists(err error) bool {
	var exists *types.ExecutionAlreadyExists
	if errors.As(err, &exists) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == codeAlreadyExists
}
