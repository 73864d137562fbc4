package agent

import (
	"encoding/json"
	"strings"
	"sync"
)

// Tool names whose output is compacted instead of truncated.
const (
	KnowledgeBaseTool   = "knowledge_base_query"
	CodeInterpreterTool = "code_interpreter"
)

// Tool invocation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	truncatedMarker = "<!TRUNCATED>"
	defaultTruncate = 500
	kbTextLimit     = 500
)

// ToolRecord is one tool invocation as reported in verification details.
type ToolRecord struct {
	ToolUseID string          `json:"toolUseId"`
	ToolName  string          `json:"toolName"`
	Input     json.RawMessage `json:"input"`
	Output    string          `json:"output"`
	Status    string          `json:"status"`
}

// History accumulates tool invocations for a single run. It is safe for
// concurrent use.
type History struct {
	mu       sync.Mutex
	truncate int
	records  []ToolRecord
}

// NewHistory creates a History that truncates plain tool output beyond
// truncate runes. A non-positive value selects the default of 500.
func NewHistory(truncate int) *History {
	if truncate <= 0 {
		truncate = defaultTruncate
	}
	return &History{truncate: truncate}
}

// Record appends one invocation after compacting its output.
func (h *History) Record(id, name string, input json.RawMessage, output, status string) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	rec := ToolRecord{
		ToolUseID: id,
		ToolName:  name,
		Input:     input,
		Output:    h.compact(name, output),
		Status:    status,
	}

	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
}

// Records returns a copy of the recorded invocations in call order.
func (h *History) Records() []ToolRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ToolRecord, len(h.records))
	copy(out, h.records)
	return out
}

func (h *History) compact(name, output string) string {
	switch name {
	case KnowledgeBaseTool:
		return compactKnowledgeBase(output)
	case CodeInterpreterTool:
		return compactCodeInterpreter(output)
	}

	runes := []rune(output)
	if len(runes) > h.truncate {
		return truncatedMarker + string(runes[:h.truncate])
	}
	return output
}

type kbOutput struct {
	Query   string `json:"query"`
	Results []struct {
		Text     string         `json:"text"`
		Location string         `json:"location"`
		Metadata map[string]any `json:"metadata"`
	} `json:"results"`
}

type kbCompactResult struct {
	Text         string         `json:"text"`
	Location     string         `json:"location"`
	LocationType string         `json:"locationType"`
	Metadata     map[string]any `json:"metadata"`
}

func compactKnowledgeBase(output string) string {
	var in kbOutput
	if err := json.Unmarshal([]byte(output), &in); err != nil {
		return output
	}

	results := make([]kbCompactResult, 0, len(in.Results))
	for _, r := range in.Results {
		meta := map[string]any{}
		if page, ok := r.Metadata["page"]; ok && page != nil {
			meta["page"] = page
		}
		text := []rune(r.Text)
		if len(text) > kbTextLimit {
			text = text[:kbTextLimit]
		}
		results = append(results, kbCompactResult{
			Text:         string(text),
			Location:     r.Location,
			LocationType: LocationType(r.Location),
			Metadata:     meta,
		})
	}

	b, err := json.Marshal(struct {
		Query   string            `json:"query"`
		Results []kbCompactResult `json:"results"`
	}{in.Query, results})
	if err != nil {
		return output
	}
	return string(b)
}

func compactCodeInterpreter(output string) string {
	var in struct {
		Stdout   string `json:"stdout"`
		Stderr   string `json:"stderr"`
		ExitCode int    `json:"exitCode"`
	}
	if err := json.Unmarshal([]byte(output), &in); err != nil {
		return output
	}

	b, err := json.Marshal(in)
	if err != nil {
		return output
	}
	return string(b)
}

// LocationType classifies a knowledge base source location as S3, URL or OTHER.
func LocationType(location string) string {
	switch {
	case strings.HasPrefix(location, "s3://"):
		return "S3"
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return "URL"
	default:
		return "OTHER"
	}
}
