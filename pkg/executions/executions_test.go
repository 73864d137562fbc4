package executions_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/aws/smithy-go"

	"github.com/JaimeStill/rapid/pkg/executions"
)

type fakeSFN struct {
	running  int
	listErr  error
	startErr error
	limit    int32
	started  []*sfn.StartExecutionInput
}

func (f *fakeSFN) ListExecutions(_ context.Context, in *sfn.ListExecutionsInput, _ ...func(*sfn.Options)) (*sfn.ListExecutionsOutput, error) {
	f.limit = in.MaxResults
	if f.listErr != nil {
		return nil, f.listErr
	}
	n := min(f.running, int(in.MaxResults))
	return &sfn.ListExecutionsOutput{Executions: make([]types.ExecutionListItem, n)}, nil
}

func (f *fakeSFN) StartExecution(_ context.Context, in *sfn.StartExecutionInput, _ ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error) {
	f.started = append(f.started, in)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &sfn.StartExecutionOutput{ExecutionArn: aws.String("arn:exec:" + aws.ToString(in.Name))}, nil
}

func newClient(api executions.API) *executions.Client {
	return executions.NewFromAPI(api, "arn:sm:review", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunningBoundedByLimit(t *testing.T) {
	api := &fakeSFN{running: 10}

	got, err := newClient(api).Running(context.Background(), 3)
	if err != nil {
		t.Fatalf("Running: %v", err)
	}
	if got != 3 {
		t.Errorf("Running = %d, want 3", got)
	}
	if api.limit != 3 {
		t.Errorf("MaxResults = %d, want 3", api.limit)
	}
}

func TestStartPassesNameAndInput(t *testing.T) {
	api := &fakeSFN{}

	arn, err := newClient(api).Start(context.Background(), "msg-1", `{"reviewJobId":"job-1"}`)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if arn != "arn:exec:msg-1" {
		t.Errorf("arn = %q, want arn:exec:msg-1", arn)
	}
	if got := aws.ToString(api.started[0].Input); got != `{"reviewJobId":"job-1"}` {
		t.Errorf("Input = %q", got)
	}
}

func TestStartAlreadyExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed fault", &types.ExecutionAlreadyExists{Message: aws.String("dup")}, true},
		{"generic api error", &smithy.GenericAPIError{Code: "ExecutionAlreadyExists"}, true},
		{"throttling", &smithy.GenericAPIError{Code: "ThrottlingException"}, false},
		{"plain error", errors.New("network down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSFN{startErr: tt.err}
			_, err := newClient(api).Start(context.Background(), "msg-1", "{}")
			if got := errors.Is(err, executions.ErrAlreadyExists); got != tt.want {
				t.Errorf("errors.Is(ErrAlreadyExists) = %v, want %v (err = %v)", got, tt.want, err)
			}
		})
	}
}

func TestMissingStateMachine(t *testing.T) {
	c := executions.NewFromAPI(&fakeSFN{}, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := c.Running(context.Background(), 3); !errors.Is(err, executions.ErrNoStateMachine) {
		t.Errorf("Running error = %v, want ErrNoStateMachine", err)
	}
}
