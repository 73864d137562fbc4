package tools

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	smithydocument "github.com/aws/smithy-go/document"

	"github.com/JaimeStill/rapid/internal/agent"
)

const (
	dataSourceKey     = "x-amz-bedrock-kb-data-source-id"
	defaultMaxResults = 5
)

// RetrieveAPI is the subset of the agent runtime client used for retrieval.
type RetrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// KnowledgeBaseQuery searches one or more knowledge bases.
type KnowledgeBaseQuery struct {
	api    RetrieveAPI
	bases  []KnowledgeBase
	logger *slog.Logger
}

// NewKnowledgeBaseQuery creates the knowledge_base_query tool.
func NewKnowledgeBaseQuery(api RetrieveAPI, bases []KnowledgeBase, logger *slog.Logger) *KnowledgeBaseQuery {
	return &KnowledgeBaseQuery{
		api:    api,
		bases:  bases,
		logger: logger.With("tool", agent.KnowledgeBaseTool),
	}
}

func (q *KnowledgeBaseQuery) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        agent.KnowledgeBaseTool,
		Description: "Search the configured knowledge bases for information that supports the review decision.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural language search query.",
				},
				"max_results_per_kb": map[string]any{
					"type":        "integer",
					"description": "Maximum results per knowledge base.",
					"default":     defaultMaxResults,
				},
			},
			"required": []string{"query"},
		},
	}
}

// Passage is one retrieved knowledge base chunk.
type Passage struct {
	KnowledgeBaseID string         `json:"knowledgeBaseId"`
	Text            string         `json:"text,omitempty"`
	Score           float64        `json:"score"`
	Location        string         `json:"location,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// QueryResult is the tool output handed to the model.
type QueryResult struct {
	Query        string    `json:"query"`
	TotalResults int       `json:"totalResults"`
	Results      []Passage `json:"results"`
}

func (q *KnowledgeBaseQuery) Call(ctx context.Context, input json.RawMessage) (agent.ToolResult, error) {
	var in struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results_per_kb"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Query == "" {
		return agent.ToolResult{}, fmt.Errorf("%w: query required", agent.ErrInvalidInput)
	}
	if in.MaxResults <= 0 {
		in.MaxResults = defaultMaxResults
	}

	var passages []Passage
	for _, kb := range q.bases {
		if kb.KnowledgeBaseID == "" {
			q.logger.WarnContext(ctx, "skipping knowledge base without id")
			continue
		}

		found, err := q.retrieve(ctx, kb, in.Query, in.MaxResults)
		if err != nil {
			q.logger.ErrorContext(ctx, "retrieve failed", "knowledge_base_id", kb.KnowledgeBaseID, "error", err)
			passages = append(passages, Passage{KnowledgeBaseID: kb.KnowledgeBaseID, Error: err.Error()})
			continue
		}
		passages = append(passages, found...)
	}

	slices.SortStableFunc(passages, func(a, b Passage) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return agent.ToolResult{JSON: QueryResult{
		Query:        in.Query,
		TotalResults: len(passages),
		Results:      passages,
	}}, nil
}

func (q *KnowledgeBaseQuery) retrieve(ctx context.Context, kb KnowledgeBase, query string, limit int) ([]Passage, error) {
	vector := &types.KnowledgeBaseVectorSearchConfiguration{
		NumberOfResults: aws.Int32(int32(min(limit, math.MaxInt32))),
	}
	if len(kb.DataSourceIDs) > 0 {
		vector.Filter = &types.RetrievalFilterMemberIn{Value: types.FilterAttribute{
			Key:   aws.String(dataSourceKey),
			Value: document.NewLazyDocument(kb.DataSourceIDs),
		}}
	}

	out, err := q.api.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(kb.KnowledgeBaseID),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: vector,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve from %s: %w", kb.KnowledgeBaseID, err)
	}

	passages := make([]Passage, 0, len(out.RetrievalResults))
	for _, r := range out.RetrievalResults {
		p := Passage{
			KnowledgeBaseID: kb.KnowledgeBaseID,
			Score:           aws.ToFloat64(r.Score),
			Location:        FormatLocation(r.Location),
			Metadata:        metadata(r.Metadata),
		}
		if r.Content != nil {
			p.Text = aws.ToString(r.Content.Text)
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// FormatLocation renders a retrieval location as a URI or URL.
func FormatLocation(loc *types.RetrievalResultLocation) string {
	if loc == nil {
		return ""
	}
	switch {
	case loc.S3Location != nil:
		return aws.ToString(loc.S3Location.Uri)
	case loc.WebLocation != nil:
		return aws.ToString(loc.WebLocation.Url)
	case loc.ConfluenceLocation != nil:
		return aws.ToString(loc.ConfluenceLocation.Url)
	case loc.SalesforceLocation != nil:
		return aws.ToString(loc.SalesforceLocation.Url)
	case loc.SharePointLocation != nil:
		return aws.ToString(loc.SharePointLocation.Url)
	default:
		return "Unknown location type: " + string(loc.Type)
	}
}

func metadata(in map[string]document.Interface) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		var decoded any
		if err := v.UnmarshalSmithyDocument(&decoded); err != nil {
			continue
		}
		out[k] = normalizeNumber(decoded)
	}
	return out
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case smithydocument.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}
