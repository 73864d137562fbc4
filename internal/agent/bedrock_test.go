package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/JaimeStill/rapid/internal/agent"
)

type scriptedConverse struct {
	responses []*bedrockruntime.ConverseOutput
	err       error
	inputs    []*bedrockruntime.ConverseInput
	messages  []int
}

func (s *scriptedConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.inputs = append(s.inputs, in)
	s.messages = append(s.messages, len(in.Messages))
	if s.err != nil {
		return nil, s.err
	}
	n := len(s.inputs) - 1
	if n >= len(s.responses) {
		n = len(s.responses) - 1
	}
	return s.responses[n], nil
}

func reply(stop types.StopReason, in, out int32, blocks ...types.ContentBlock) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Usage:      &types.TokenUsage{InputTokens: aws.Int32(in), OutputTokens: aws.Int32(out)},
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: blocks,
		}},
	}
}

func toolUse(id, name string, input map[string]any) types.ContentBlock {
	return &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
		ToolUseId: aws.String(id),
		Name:      aws.String(name),
		Input:     document.NewLazyDocument(input),
	}}
}

type echoTool struct {
	calls []json.RawMessage
	err   error
}

func (e *echoTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{Name: "echo", Description: "echo input"}
}

func (e *echoTool) Call(_ context.Context, input json.RawMessage) (agent.ToolResult, error) {
	e.calls = append(e.calls, input)
	if e.err != nil {
		return agent.ToolResult{}, e.err
	}
	return agent.ToolResult{JSON: map[string]any{"echo": string(input)}}, nil
}

func newRunner(api agent.ConverseAPI, opts agent.Options) *agent.BedrockRunner {
	return agent.NewBedrockFromAPI(api, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunSingleTurn(t *testing.T) {
	api := &scriptedConverse{responses: []*bedrockruntime.ConverseOutput{
		reply(types.StopReasonEndTurn, 100, 20,
			&types.ContentBlockMemberText{Value: "<<JSON_START>>"},
			&types.ContentBlockMemberText{Value: `{"result":"pass"}<<JSON_END>>`},
		),
	}}

	out, err := newRunner(api, agent.Options{}).Run(context.Background(), agent.Request{
		ModelID: "m",
		System:  "system",
		Prompt:  "review",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Text != `<<JSON_START>>{"result":"pass"}<<JSON_END>>` {
		t.Errorf("Text = %q", out.Text)
	}
	if out.Usage.InputTokens != 100 || out.Usage.OutputTokens != 20 {
		t.Errorf("Usage = %+v, want 100/20", out.Usage)
	}
	if out.Turns != 1 {
		t.Errorf("Turns = %d, want 1", out.Turns)
	}
	if len(out.History) != 0 {
		t.Errorf("History = %v, want empty", out.History)
	}

	in := api.inputs[0]
	if aws.ToString(in.ModelId) != "m" {
		t.Errorf("ModelId = %q, want m", aws.ToString(in.ModelId))
	}
	if in.ToolConfig != nil {
		t.Error("ToolConfig should be nil without tools")
	}
	if len(in.System) != 1 {
		t.Errorf("System blocks = %d, want 1 without caching", len(in.System))
	}
}

func TestRunToolLoop(t *testing.T) {
	tool := &echoTool{}
	api := &scriptedConverse{responses: []*bedrockruntime.ConverseOutput{
		reply(types.StopReasonToolUse, 50, 10,
			&types.ContentBlockMemberText{Value: "checking"},
			toolUse("t1", "echo", map[string]any{"q": "a"}),
			toolUse("t2", "missing", map[string]any{}),
		),
		reply(types.StopReasonEndTurn, 70, 15, &types.ContentBlockMemberText{Value: "done"}),
	}}

	out, err := newRunner(api, agent.Options{}).Run(context.Background(), agent.Request{
		ModelID: "m",
		Prompt:  "review",
		Tools:   []agent.Tool{tool},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Text != "done" {
		t.Errorf("Text = %q, want done", out.Text)
	}
	if out.Usage.InputTokens != 120 || out.Usage.OutputTokens != 25 {
		t.Errorf("Usage = %+v, want 120/25", out.Usage)
	}
	if len(tool.calls) != 1 || string(tool.calls[0]) != `{"q":"a"}` {
		t.Errorf("tool calls = %s", tool.calls)
	}

	if len(out.History) != 2 {
		t.Fatalf("History = %d records, want 2", len(out.History))
	}
	if h := out.History[0]; h.ToolUseID != "t1" || h.ToolName != "echo" || h.Status != agent.StatusSuccess {
		t.Errorf("History[0] = %+v", h)
	}
	if h := out.History[1]; h.ToolName != "missing" || h.Status != agent.StatusError {
		t.Errorf("History[1] = %+v", h)
	}

	if api.messages[1] != 3 {
		t.Errorf("second turn messages = %d, want 3", api.messages[1])
	}
	last := api.inputs[1].Messages[2]
	if last.Role != types.ConversationRoleUser || len(last.Content) != 2 {
		t.Fatalf("tool result message = %+v", last)
	}
	res, ok := last.Content[1].(*types.ContentBlockMemberToolResult)
	if !ok || res.Value.Status != types.ToolResultStatusError {
		t.Errorf("unknown tool result = %#v, want error status", last.Content[1])
	}
}

func TestRunEmbeddedDocumentsWithCitations(t *testing.T) {
	api := &scriptedConverse{responses: []*bedrockruntime.ConverseOutput{
		reply(types.StopReasonEndTurn, 1, 1,
			&types.ContentBlockMemberCitationsContent{Value: types.CitationsContentBlock{
				Content: []types.CitationGeneratedContent{
					&types.CitationGeneratedContentMemberText{Value: "The total is 42."},
				},
				Citations: []types.Citation{
					{SourceContent: []types.CitationSourceContent{
						&types.CitationSourceContentMemberText{Value: "Total: 42"},
					}},
					{},
				},
			}},
		),
	}}

	out, err := newRunner(api, agent.Options{}).Run(context.Background(), agent.Request{
		ModelID:   "m",
		System:    "sys",
		Prompt:    "review",
		Citations: true,
		Caching:   true,
		Documents: []agent.Document{{Name: "doc_abcd1234", Format: "pdf", Bytes: []byte("%PDF")}},
		Tools:     []agent.Tool{&echoTool{}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Text != "The total is 42." {
		t.Errorf("Text = %q", out.Text)
	}
	if len(out.Citations) != 1 || out.Citations[0] != "Total: 42" {
		t.Errorf("Citations = %v, want [Total: 42]", out.Citations)
	}

	in := api.inputs[0]
	doc, ok := in.Messages[0].Content[0].(*types.ContentBlockMemberDocument)
	if !ok {
		t.Fatalf("first block = %T, want document", in.Messages[0].Content[0])
	}
	if doc.Value.Citations == nil || !aws.ToBool(doc.Value.Citations.Enabled) {
		t.Error("document citations should be enabled")
	}
	if doc.Value.Format != types.DocumentFormatPdf {
		t.Errorf("Format = %q, want pdf", doc.Value.Format)
	}

	if _, ok := in.System[len(in.System)-1].(*types.SystemContentBlockMemberCachePoint); !ok {
		t.Error("system prompt should end with a cache point")
	}
	tools := in.ToolConfig.Tools
	if _, ok := tools[len(tools)-1].(*types.ToolMemberCachePoint); !ok {
		t.Error("tool list should end with a cache point")
	}
}

func TestRunTurnLimit(t *testing.T) {
	api := &scriptedConverse{responses: []*bedrockruntime.ConverseOutput{
		reply(types.StopReasonToolUse, 1, 1, toolUse("t", "echo", map[string]any{})),
	}}

	out, err := newRunner(api, agent.Options{MaxTurns: 3}).Run(context.Background(), agent.Request{
		ModelID: "m",
		Tools:   []agent.Tool{&echoTool{}},
	})
	if !errors.Is(err, agent.ErrTurnLimit) {
		t.Fatalf("Run() error = %v, want %v", err, agent.ErrTurnLimit)
	}
	if len(api.inputs) != 3 {
		t.Errorf("converse calls = %d, want 3", len(api.inputs))
	}
	if len(out.History) != 3 {
		t.Errorf("History = %d, want 3", len(out.History))
	}
}

func TestRunErrors(t *testing.T) {
	errDown := errors.New("service unavailable")

	tests := []struct {
		name string
		api  *scriptedConverse
		req  agent.Request
		want error
	}{
		{"no model", &scriptedConverse{}, agent.Request{}, agent.ErrNoModel},
		{"converse failure", &scriptedConverse{err: errDown}, agent.Request{ModelID: "m"}, errDown},
		{
			"no message",
			&scriptedConverse{responses: []*bedrockruntime.ConverseOutput{{StopReason: types.StopReasonEndTurn}}},
			agent.Request{ModelID: "m"},
			agent.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRunner(tt.api, agent.Options{}).Run(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsThrottled(t *testing.T) {
	if !agent.IsThrottled(&types.ThrottlingException{Message: aws.String("slow down")}) {
		t.Error("ThrottlingException should be throttled")
	}
	if agent.IsThrottled(errors.New("other")) {
		t.Error("plain error should not be throttled")
	}
}
