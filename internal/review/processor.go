package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/rapid/internal/agent"
	"github.com/JaimeStill/rapid/internal/capability"
	"github.com/JaimeStill/rapid/internal/tools"
	"github.com/JaimeStill/rapid/pkg/formatting"
)

// Downloader reads stored documents.
type Downloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ToolFactory builds the optional tools requested by a job.
type ToolFactory interface {
	Build(ctx context.Context, cfg *tools.Configuration) []agent.Tool
}

// Sink receives every completed result.
type Sink interface {
	Deliver(ctx context.Context, job Job, result Result) error
}

// Settings control model selection and request shaping.
type Settings struct {
	DocumentModel       string
	ImageModel          string
	Citations           bool
	MaxDocumentSize     int64
	MaxTokens           int
	Temperature         float32
	DownloadConcurrency int
	WorkDir             string
}

// Processor runs one review job end to end.
type Processor struct {
	storage  Downloader
	runner   agent.Runner
	resolver *capability.Resolver
	tools    ToolFactory
	sinks    []Sink
	settings Settings
	now      func() time.Time
	logger   *slog.Logger
}

// NewProcessor creates a Processor. factory may be nil when no optional
// tools are available.
func NewProcessor(
	storage Downloader,
	runner agent.Runner,
	resolver *capability.Resolver,
	factory ToolFactory,
	settings Settings,
	logger *slog.Logger,
	sinks ...Sink,
) *Processor {
	if settings.DownloadConcurrency <= 0 {
		settings.DownloadConcurrency = 4
	}
	return &Processor{
		storage:  storage,
		runner:   runner,
		resolver: resolver,
		tools:    factory,
		sinks:    sinks,
		settings: settings,
		now:      time.Now,
		logger:   logger.With("system", "review"),
	}
}

// Process downloads the job's documents, runs the agent with the strategy
// the model supports, and returns the completed result after delivering it
// to every sink.
func (p *Processor) Process(ctx context.Context, job Job) (Result, error) {
	if err := job.Validate(); err != nil {
		return Result{}, err
	}

	start := p.now()
	logger := p.logger.With("review_job_id", job.ReviewJobID, "check_id", job.CheckID)

	dir, err := os.MkdirTemp(p.settings.WorkDir, "review-*")
	if err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files, err := p.stage(ctx, dir, job.DocumentPaths)
	if err != nil {
		return Result{}, err
	}

	modelID := p.model(job, files)
	c := p.resolver.Resolve(modelID)
	strategy := SelectStrategy(files, c, p.settings.Citations)

	req := agent.Request{
		ModelID:     modelID,
		System:      SystemPrompt(job.Language()),
		Caching:     c.Caching,
		MaxTokens:   p.settings.MaxTokens,
		Temperature: p.settings.Temperature,
	}

	if strategy.Access == AccessEmbedded {
		docs, err := p.embed(ctx, files)
		if err != nil {
			logger.WarnContext(ctx, "embedding unavailable, using file tools", "error", err)
			strategy = Strategy{Access: AccessTools, Content: ContentPlain, ReviewType: TypePDF}
		} else {
			req.Documents = docs
			req.Citations = strategy.Citations()
		}
	}

	switch {
	case strategy.ReviewType == TypeImage:
		req.Prompt = ImagePrompt(job, files, modelID)
		req.Tools = []agent.Tool{agent.NewFileReader(dir), agent.NewImageReader(dir)}
	case strategy.Access == AccessTools:
		req.Prompt = DocumentPrompt(job, files, strategy)
		req.Tools = []agent.Tool{agent.NewFileReader(dir)}
	default:
		req.Prompt = DocumentPrompt(job, files, strategy)
	}
	if p.tools != nil {
		req.Tools = append(req.Tools, p.tools.Build(ctx, job.ToolConfiguration)...)
	}

	logger.InfoContext(ctx, "review started",
		"model_id", modelID,
		"files", len(files),
		"access", strategy.Access.String(),
		"content", strategy.Content.String(),
		"review_type", string(strategy.ReviewType),
	)

	out, err := p.runner.Run(ctx, req)
	if err != nil {
		if agent.IsThrottled(err) {
			return Result{}, fmt.Errorf("%w: %w", ErrThrottled, err)
		}
		return Result{}, fmt.Errorf("run agent: %w", err)
	}

	draft := ToDraft(out, strategy.Citations())
	result := Complete(draft, strategy.ReviewType)
	end := p.now()
	result.Meta = NewMeta(c, modelID, out.Usage, end.Sub(start), end)

	logger.InfoContext(ctx, "review completed",
		"result", string(result.Result),
		"extraction", draft.Method.String(),
		"confidence", result.Confidence,
		"tool_calls", len(result.VerificationDetails.SourcesDetails),
		"total_cost", result.Meta.TotalCost,
	)

	return result, p.deliver(ctx, job, result)
}

func (p *Processor) model(job Job, files []File) string {
	switch {
	case job.ModelID != "":
		return job.ModelID
	case HasImages(files):
		return p.settings.ImageModel
	default:
		return p.settings.DocumentModel
	}
}

// stage downloads every document into dir under a sanitized name.
func (p *Processor) stage(ctx context.Context, dir string, keys []string) ([]File, error) {
	files := make([]File, len(keys))
	seen := make(map[string]int, len(keys))

	for i, key := range keys {
		base := SanitizeName(key)
		name := base
		if n := seen[base]; n > 0 {
			ext := filepath.Ext(base)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
		}
		seen[base]++

		files[i] = File{
			Source: key,
			Name:   name,
			Path:   filepath.Join(dir, name),
			Image:  IsImage(key),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.DownloadConcurrency)

	for i := range files {
		g.Go(func() error {
			size, err := p.download(gctx, files[i].Source, files[i].Path)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrDownload, files[i].Source, err)
			}
			files[i].Size = size
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (p *Processor) download(ctx context.Context, key, path string) (int64, error) {
	rc, err := p.storage.Download(ctx, key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// embed loads every file as a request document, rejecting files that cannot
// be embedded.
func (p *Processor) embed(ctx context.Context, files []File) ([]agent.Document, error) {
	docs := make([]agent.Document, 0, len(files))

	for _, f := range files {
		format, ok := agent.DocumentFormat(f.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Source)
		}
		if p.settings.MaxDocumentSize > 0 && f.Size > p.settings.MaxDocumentSize {
			return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrDocumentTooLarge, f.Source,
				formatting.FormatBytes(f.Size, 1), formatting.FormatBytes(p.settings.MaxDocumentSize, 1))
		}

		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Source, err)
		}

		if format == "pdf" {
			if pages, err := agent.PageCount(data); err != nil {
				p.logger.WarnContext(ctx, "pdf page count failed", "source", f.Source, "error", err)
			} else {
				p.logger.DebugContext(ctx, "pdf embedded", "source", f.Source, "pages", pages)
			}
		}

		docs = append(docs, agent.Document{
			Name:   agent.DocumentName(f.Name),
			Format: format,
			Bytes:  data,
		})
	}

	return docs, nil
}

func (p *Processor) deliver(ctx context.Context, job Job, result Result) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Deliver(ctx, job, result); err != nil {
			p.logger.ErrorContext(ctx, "result delivery failed", "review_job_id", job.ReviewJobID, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDelivery, errors.Join(errs...))
	}
	return nil
}
