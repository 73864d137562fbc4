package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/internal/tools"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRetrieve struct {
	results map[string][]types.KnowledgeBaseRetrievalResult
	errs    map[string]error
	inputs  []*bedrockagentruntime.RetrieveInput
}

func (f *fakeRetrieve) Retrieve(_ context.Context, in *bedrockagentruntime.RetrieveInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	f.inputs = append(f.inputs, in)
	id := aws.ToString(in.KnowledgeBaseId)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return &bedrockagentruntime.RetrieveOutput{RetrievalResults: f.results[id]}, nil
}

func passage(text string, score float64, uri string) types.KnowledgeBaseRetrievalResult {
	return types.KnowledgeBaseRetrievalResult{
		Content: &types.RetrievalResultContent{Text: aws.String(text)},
		Score:   aws.Float64(score),
		Location: &types.RetrievalResultLocation{
			Type:       types.RetrievalResultLocationTypeS3,
			S3Location: &types.RetrievalResultS3Location{Uri: aws.String(uri)},
		},
		Metadata: map[string]document.Interface{
			"page": document.NewLazyDocument(3),
		},
	}
}

func TestKnowledgeBaseQuery(t *testing.T) {
	api := &fakeRetrieve{
		results: map[string][]types.KnowledgeBaseRetrievalResult{
			"KB1": {passage("low", 0.2, "s3://b/low.pdf"), passage("high", 0.9, "s3://b/high.pdf")},
			"KB2": {passage("mid", 0.5, "s3://b/mid.pdf")},
		},
		errs: map[string]error{"KB3": errors.New("access denied")},
	}
	q := tools.NewKnowledgeBaseQuery(api, []tools.KnowledgeBase{
		{KnowledgeBaseID: "KB1", DataSourceIDs: []string{"DS1"}},
		{KnowledgeBaseID: "KB2"},
		{KnowledgeBaseID: "KB3"},
		{},
	}, discard())

	res, err := q.Call(context.Background(), json.RawMessage(`{"query":"retention","max_results_per_kb":3}`))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	out, ok := res.JSON.(tools.QueryResult)
	if !ok {
		t.Fatalf("JSON = %T, want QueryResult", res.JSON)
	}
	if out.Query != "retention" || out.TotalResults != 4 {
		t.Errorf("query/total = %q/%d, want retention/4", out.Query, out.TotalResults)
	}

	wantOrder := []string{"high", "mid", "low", ""}
	for i, want := range wantOrder {
		if out.Results[i].Text != want {
			t.Errorf("results[%d].Text = %q, want %q", i, out.Results[i].Text, want)
		}
	}
	if out.Results[3].Error == "" || out.Results[3].KnowledgeBaseID != "KB3" {
		t.Errorf("failed knowledge base = %+v, want error entry", out.Results[3])
	}
	if out.Results[0].Location != "s3://b/high.pdf" {
		t.Errorf("Location = %q", out.Results[0].Location)
	}
	if page := out.Results[0].Metadata["page"]; page != float64(3) {
		t.Errorf("page = %v (%T), want 3", page, page)
	}

	if len(api.inputs) != 3 {
		t.Fatalf("retrieve calls = %d, want 3", len(api.inputs))
	}
	vector := api.inputs[0].RetrievalConfiguration.VectorSearchConfiguration
	if aws.ToInt32(vector.NumberOfResults) != 3 {
		t.Errorf("NumberOfResults = %d, want 3", aws.ToInt32(vector.NumberOfResults))
	}
	filter, ok := vector.Filter.(*types.RetrievalFilterMemberIn)
	if !ok || aws.ToString(filter.Value.Key) != "x-amz-bedrock-kb-data-source-id" {
		t.Errorf("Filter = %#v, want data source filter", vector.Filter)
	}
	if api.inputs[1].RetrievalConfiguration.VectorSearchConfiguration.Filter != nil {
		t.Error("knowledge base without data sources should not be filtered")
	}
}

func TestKnowledgeBaseQueryInvalidInput(t *testing.T) {
	q := tools.NewKnowledgeBaseQuery(&fakeRetrieve{}, nil, discard())
	if _, err := q.Call(context.Background(), json.RawMessage(`{}`)); !errors.Is(err, agent.ErrInvalidInput) {
		t.Errorf("Call() error = %v, want %v", err, agent.ErrInvalidInput)
	}
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  *types.RetrievalResultLocation
		want string
	}{
		{"nil", nil, ""},
		{"web", &types.RetrievalResultLocation{
			Type:        types.RetrievalResultLocationTypeWeb,
			WebLocation: &types.RetrievalResultWebLocation{Url: aws.String("https://example.com")},
		}, "https://example.com"},
		{"sharepoint", &types.RetrievalResultLocation{
			SharePointLocation: &types.RetrievalResultSharePointLocation{Url: aws.String("https://sp.example.com/doc")},
		}, "https://sp.example.com/doc"},
		{"unknown", &types.RetrievalResultLocation{Type: "KENDRA"}, "Unknown location type: KENDRA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tools.FormatLocation(tt.loc); got != tt.want {
				t.Errorf("FormatLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

type stubTool struct{ name string }

func (s stubTool) Spec() agent.ToolSpec { return agent.ToolSpec{Name: s.name} }

func (s stubTool) Call(context.Context, json.RawMessage) (agent.ToolResult, error) {
	return agent.ToolResult{}, nil
}

func names(ts []agent.Tool) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Spec().Name
	}
	return out
}

func TestFactoryBuild(t *testing.T) {
	code := stubTool{name: agent.CodeInterpreterTool}

	tests := []struct {
		name string
		cfg  *tools.Configuration
		opts []tools.Option
		want []string
	}{
		{"nil", nil, nil, []string{}},
		{"empty", &tools.Configuration{}, nil, []string{}},
		{
			"knowledge base",
			&tools.Configuration{KnowledgeBase: []tools.KnowledgeBase{{KnowledgeBaseID: "KB1"}}},
			nil,
			[]string{agent.KnowledgeBaseTool},
		},
		{
			"code interpreter unavailable",
			&tools.Configuration{CodeInterpreter: true},
			nil,
			[]string{},
		},
		{
			"all",
			&tools.Configuration{
				CodeInterpreter: true,
				KnowledgeBase:   []tools.KnowledgeBase{{KnowledgeBaseID: "KB1"}},
				MCPConfig:       json.RawMessage(`{"servers":[]}`),
			},
			[]tools.Option{tools.WithCodeInterpreter(code)},
			[]string{agent.CodeInterpreterTool, agent.KnowledgeBaseTool},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tools.NewFactoryFromAPI(&fakeRetrieve{}, discard(), tt.opts...)
			got := names(f.Build(context.Background(), tt.cfg))
			if len(got) != len(tt.want) {
				t.Fatalf("tools = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tools[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConfigurationJSON(t *testing.T) {
	var cfg tools.Configuration
	raw := `{"knowledgeBase":[{"knowledgeBaseId":"KB1","dataSourceIds":["DS1","DS2"]}],"codeInterpreter":true}`
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.Empty() {
		t.Error("Empty() = true, want false")
	}
	if got := cfg.KnowledgeBase[0].DataSourceIDs; len(got) != 2 || got[1] != "DS2" {
		t.Errorf("DataSourceIDs = %v", got)
	}
}
