// Package agent runs a single model conversation to completion, executing
// the tools the model requests and recording every invocation.
package agent

import (
	"context"
	"encoding/json"
)

// Runner executes one agent request.
type Runner interface {
	Run(ctx context.Context, req Request) (Output, error)
}

// Request describes a single agent run.
type Request struct {
	ModelID     string
	System      string
	Prompt      string
	Documents   []Document
	Tools       []Tool
	Citations   bool
	Caching     bool
	MaxTokens   int
	Temperature float32
}

// Output is the final state of a run.
type Output struct {
	Text       string
	Citations  []string
	Usage      Usage
	History    []ToolRecord
	StopReason string
	Turns      int
}

// Usage counts the tokens consumed across every turn of a run.
type Usage struct {
	InputTokens      int `json:"inputTokens"`
	OutputTokens     int `json:"outputTokens"`
	CacheReadTokens  int `json:"cacheReadTokens,omitempty"`
	CacheWriteTokens int `json:"cacheWriteTokens,omitempty"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheWriteTokens += other.CacheWriteTokens
}

// Document is a file embedded directly in the request.
type Document struct {
	Name   string
	Format string
	Bytes  []byte
}

// Image is an image returned by a tool.
type Image struct {
	Format string
	Bytes  []byte
}

// Tool is a capability the model may invoke during a run.
type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, input json.RawMessage) (ToolResult, error)
}

// ToolSpec advertises a tool to the model. Schema is a JSON schema object.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolResult is what a tool hands back to the model. JSON is preferred
// over Text when both are set.
type ToolResult struct {
	Text      string
	JSON      any
	Documents []Document
	Images    []Image
}

// Summary returns the textual form of the result used in history records.
func (r ToolResult) Summary() string {
	if r.JSON != nil {
		if b, err := json.Marshal(r.JSON); err == nil {
			return string(b)
		}
	}
	return r.Text
}
