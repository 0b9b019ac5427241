package chunker

import (
	"context"
	"fmt"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/validator"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Chunks      []*models.Chunk
	Report      *validator.Report
	Diagnostics *models.Diagnostics
}

// Pipeline chunks every page of a document, applies overlap across the
// ordered chunk list and validates the result.
type Pipeline struct {
	chunker   *MarkdownChunker
	validator *validator.Validator
	workers   int
	logger    *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a logger for run summaries.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithWorkers overrides the number of pages chunked concurrently.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) { p.workers = n }
}

// NewPipeline returns a pipeline using c for chunking and v for validation.
func NewPipeline(c *MarkdownChunker, v *validator.Validator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{chunker: c, validator: v, workers: c.cfg.Workers}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Run chunks doc. Pages are processed concurrently but the output order is
// page order, then order within the page. ctx only stops pages that have not
// started yet.
func (p *Pipeline) Run(ctx context.Context, doc *models.Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	perPage := make([][]*models.Chunk, len(doc.Pages))
	reports := make([]*validator.Report, len(doc.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range doc.Pages {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := validator.NewReport()
			perPage[i] = p.chunker.ChunkPage(doc.Pages[i], i, r)
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("chunk pages: %w", err)
	}

	report := validator.NewReport()
	var chunks []*models.Chunk
	for i := range perPage {
		report.Merge(reports[i])
		chunks = append(chunks, perPage[i]...)
	}

	p.chunker.ApplyOverlap(chunks, report)
	kept, diag := p.validator.Validate(report, chunks)

	if p.logger != nil {
		p.logger.Info("chunking complete",
			zap.Int("pages", len(doc.Pages)),
			zap.Int("chunks", len(kept)),
			zap.Int("total_tokens", report.TotalTokens),
			zap.Int("duplicates_removed", report.DuplicatesRemoved),
			zap.Int("too_small", report.TooSmall),
			zap.Int("too_large", report.TooLarge),
			zap.Int("validation_errors", len(report.Errors)))
	}

	return &Result{Chunks: kept, Report: report, Diagnostics: diag}, nil
}
