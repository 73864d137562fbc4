package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the subset of the Bedrock runtime client used by the runner.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options tune the Bedrock runner.
type Options struct {
	// MaxTurns bounds the model round trips in one run.
	MaxTurns int
	// TruncateLength bounds plain tool output kept in history.
	TruncateLength int
}

const defaultMaxTurns = 25

// BedrockRunner runs requests through the Bedrock Converse API, looping
// while the model asks for tools.
type BedrockRunner struct {
	api     ConverseAPI
	options Options
	logger  *slog.Logger
}

var _ Runner = (*BedrockRunner)(nil)

// NewBedrock creates a runner from an AWS configuration.
func NewBedrock(awsCfg aws.Config, opts Options, logger *slog.Logger) *BedrockRunner {
	return NewBedrockFromAPI(bedrockruntime.NewFromConfig(awsCfg), opts, logger)
}

// NewBedrockFromAPI creates a runner over an existing Converse client.
func NewBedrockFromAPI(api ConverseAPI, opts Options, logger *slog.Logger) *BedrockRunner {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaultMaxTurns
	}
	return &BedrockRunner{
		api:     api,
		options: opts,
		logger:  logger.With("system", "agent"),
	}
}

func (r *BedrockRunner) Run(ctx context.Context, req Request) (Output, error) {
	if req.ModelID == "" {
		return Output{}, ErrNoModel
	}

	history := NewHistory(r.options.TruncateLength)
	tools := make(map[string]Tool, len(req.Tools))
	for _, t := range req.Tools {
		tools[t.Spec().Name] = t
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(req.ModelID),
		System:          systemBlocks(req),
		InferenceConfig: inferenceConfig(req),
		ToolConfig:      toolConfig(req),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: requestContent(req),
		}},
	}

	var out Output
	for turn := 1; turn <= r.options.MaxTurns; turn++ {
		resp, err := r.api.Converse(ctx, input)
		if err != nil {
			return out, fmt.Errorf("converse %s: %w", req.ModelID, err)
		}

		out.Turns = turn
		out.StopReason = string(resp.StopReason)
		out.Usage.Add(tokenUsage(resp.Usage))

		member, ok := resp.Output.(*types.ConverseOutputMemberMessage)
		if !ok {
			return out, ErrEmptyResponse
		}
		msg := member.Value
		input.Messages = append(input.Messages, msg)

		text, citations := collectText(msg.Content)
		out.Citations = append(out.Citations, citations...)

		if resp.StopReason != types.StopReasonToolUse {
			out.Text = text
			out.History = history.Records()
			r.logger.DebugContext(ctx, "run complete",
				"model_id", req.ModelID,
				"turns", turn,
				"input_tokens", out.Usage.InputTokens,
				"output_tokens", out.Usage.OutputTokens,
				"tool_calls", len(out.History),
			)
			return out, nil
		}

		results := r.callTools(ctx, tools, msg.Content, history)
		if len(results) == 0 {
			out.Text = text
			out.History = history.Records()
			return out, nil
		}
		input.Messages = append(input.Messages, types.Message{
			Role:    types.ConversationRoleUser,
			Content: results,
		})
	}

	out.History = history.Records()
	return out, fmt.Errorf("%w: %d", ErrTurnLimit, r.options.MaxTurns)
}

func (r *BedrockRunner) callTools(ctx context.Context, tools map[string]Tool, content []types.ContentBlock, history *History) []types.ContentBlock {
	var results []types.ContentBlock

	for _, block := range content {
		use, ok := block.(*types.ContentBlockMemberToolUse)
		if !ok {
			continue
		}

		id := aws.ToString(use.Value.ToolUseId)
		name := aws.ToString(use.Value.Name)
		raw := toolInput(use.Value.Input)

		var (
			res ToolResult
			err error
		)
		if tool, found := tools[name]; found {
			res, err = tool.Call(ctx, raw)
		} else {
			err = fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}

		status := StatusSuccess
		output := res.Summary()
		if err != nil {
			status = StatusError
			output = err.Error()
			r.logger.WarnContext(ctx, "tool call failed", "tool", name, "tool_use_id", id, "error", err)
		}

		history.Record(id, name, raw, output, status)
		results = append(results, toolResultBlock(id, res, err))
	}

	return results
}

func toolInput(doc document.Interface) json.RawMessage {
	if doc == nil {
		return json.RawMessage(`{}`)
	}
	b, err := doc.MarshalSmithyDocument()
	if err != nil || len(b) == 0 {
		return json.RawMessage(`{}`)
	}
	return b
}

func systemBlocks(req Request) []types.SystemContentBlock {
	if req.System == "" {
		return nil
	}
	blocks := []types.SystemContentBlock{
		&types.SystemContentBlockMemberText{Value: req.System},
	}
	if req.Caching {
		blocks = append(blocks, &types.SystemContentBlockMemberCachePoint{
			Value: types.CachePointBlock{Type: types.CachePointTypeDefault},
		})
	}
	return blocks
}

func inferenceConfig(req Request) *types.InferenceConfiguration {
	cfg := &types.InferenceConfiguration{
		Temperature: aws.Float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(min(req.MaxTokens, math.MaxInt32)))
	}
	return cfg
}

func toolConfig(req Request) *types.ToolConfiguration {
	if len(req.Tools) == 0 {
		return nil
	}

	specs := make([]types.Tool, 0, len(req.Tools)+1)
	for _, t := range req.Tools {
		spec := t.Spec()
		schema := spec.Schema
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(spec.Name),
				Description: aws.String(spec.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		})
	}
	if req.Caching {
		specs = append(specs, &types.ToolMemberCachePoint{
			Value: types.CachePointBlock{Type: types.CachePointTypeDefault},
		})
	}

	return &types.ToolConfiguration{Tools: specs}
}

func requestContent(req Request) []types.ContentBlock {
	content := make([]types.ContentBlock, 0, len(req.Documents)+1)

	for _, d := range req.Documents {
		block := documentBlock(d)
		if req.Citations {
			block.Citations = &types.CitationsConfig{Enabled: aws.Bool(true)}
		}
		content = append(content, &types.ContentBlockMemberDocument{Value: block})
	}

	content = append(content, &types.ContentBlockMemberText{Value: req.Prompt})
	return content
}

func documentBlock(d Document) types.DocumentBlock {
	return types.DocumentBlock{
		Name:   aws.String(d.Name),
		Format: types.DocumentFormat(d.Format),
		Source: &types.DocumentSourceMemberBytes{Value: d.Bytes},
	}
}

func imageBlock(img Image) types.ImageBlock {
	return types.ImageBlock{
		Format: types.ImageFormat(img.Format),
		Source: &types.ImageSourceMemberBytes{Value: img.Bytes},
	}
}

func toolResultBlock(id string, res ToolResult, err error) types.ContentBlock {
	block := types.ToolResultBlock{
		ToolUseId: aws.String(id),
		Status:    types.ToolResultStatusSuccess,
	}

	if err != nil {
		block.Status = types.ToolResultStatusError
		block.Content = []types.ToolResultContentBlock{
			&types.ToolResultContentBlockMemberText{Value: err.Error()},
		}
		return &types.ContentBlockMemberToolResult{Value: block}
	}

	if res.JSON != nil {
		block.Content = append(block.Content, &types.ToolResultContentBlockMemberJson{
			Value: document.NewLazyDocument(res.JSON),
		})
	} else if res.Text != "" {
		block.Content = append(block.Content, &types.ToolResultContentBlockMemberText{Value: res.Text})
	}
	for _, d := range res.Documents {
		block.Content = append(block.Content, &types.ToolResultContentBlockMemberDocument{Value: documentBlock(d)})
	}
	for _, img := range res.Images {
		block.Content = append(block.Content, &types.ToolResultContentBlockMemberImage{Value: imageBlock(img)})
	}
	if len(block.Content) == 0 {
		block.Content = []types.ToolResultContentBlock{
			&types.ToolResultContentBlockMemberText{Value: "(no output)"},
		}
	}

	return &types.ContentBlockMemberToolResult{Value: block}
}

// collectText joins the text of an assistant message and gathers the source
// text of every citation it carries.
func collectText(content []types.ContentBlock) (string, []string) {
	var (
		sb        strings.Builder
		citations []string
	)

	for _, block := range content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			sb.WriteString(b.Value)
		case *types.ContentBlockMemberCitationsContent:
			for _, gen := range b.Value.Content {
				if t, ok := gen.(*types.CitationGeneratedContentMemberText); ok {
					sb.WriteString(t.Value)
				}
			}
			for _, c := range b.Value.Citations {
				if src := citationSource(c); src != "" {
					citations = append(citations, src)
				}
			}
		}
	}

	return sb.String(), citations
}

func citationSource(c types.Citation) string {
	for _, sc := range c.SourceContent {
		if t, ok := sc.(*types.CitationSourceContentMemberText); ok && t.Value != "" {
			return t.Value
		}
	}
	return ""
}

func tokenUsage(u *types.TokenUsage) Usage {
	if u == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:      int(aws.ToInt32(u.InputTokens)),
		OutputTokens:     int(aws.ToInt32(u.OutputTokens)),
		CacheReadTokens:  int(aws.ToInt32(u.CacheReadInputTokens)),
		CacheWriteTokens: int(aws.ToInt32(u.CacheWriteInputTokens)),
	}
}

// IsThrottled reports whether err is a Bedrock throttling fault.
func IsThrottled(err error) bool {
	var te *types.ThrottlingException
	return errors.As(err, &te)
}
