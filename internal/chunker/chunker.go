package chunker

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/tokenizer"
	"github.com/hyperjump/mdchunk/internal/validator"
	"go.uber.org/zap"
)

// MarkdownChunker turns one page at a time into chunks. It holds no per-run
// state and is safe for concurrent use when its tokenizer is.
type MarkdownChunker struct {
	cfg    config.ChunkingConfig
	tok    tokenizer.Tokenizer
	logger *zap.Logger // optional; when set, logs debug events
}

// Option configures a MarkdownChunker.
type Option func(*MarkdownChunker)

// WithLogger sets a logger for debug output (sections found, code blocks split, overlap applied).
func WithLogger(l *zap.Logger) Option {
	return func(c *MarkdownChunker) { c.logger = l }
}

// NewMarkdownChunker validates cfg and returns a chunker measuring with tok.
func NewMarkdownChunker(cfg config.ChunkingConfig, tok tokenizer.Tokenizer, opts ...Option) (*MarkdownChunker, error) {
	if tok == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	c := &MarkdownChunker{cfg: cfg, tok: tok}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the chunking bounds in use.
func (c *MarkdownChunker) Config() config.ChunkingConfig {
	return c.cfg
}

// Tokenizer returns the tokenizer used for all measurements.
func (c *MarkdownChunker) Tokenizer() tokenizer.Tokenizer {
	return c.tok
}

// ChunkPage strips, sections, splits and adjusts one page. The returned chunks
// carry no overlap yet; Text equals CoreText.
func (c *MarkdownChunker) ChunkPage(page models.Page, pageIndex int, r *validator.Report) []*models.Chunk {
	source := pageSource(page, pageIndex)

	stripped := Strip(page.Markdown)
	r.RecordPage(stripped, c.tok.Count(stripped))

	sections := IdentifySections(stripped, source, r)
	var drafts []draft
	for _, s := range sections {
		drafts = append(drafts, c.splitSection(s)...)
	}
	drafts = c.adjust(drafts, source, r)

	if c.logger != nil {
		c.logger.Debug("page chunked",
			zap.String("source", source),
			zap.Int("sections", len(sections)),
			zap.Int("chunks", len(drafts)))
	}

	chunks := make([]*models.Chunk, 0, len(drafts))
	for _, d := range drafts {
		chunks = append(chunks, &models.Chunk{
			ID:         uuid.New().String(),
			Headers:    d.headers,
			Text:       d.text,
			TokenCount: d.tokens,
			SourceURL:  page.Metadata.SourceURL,
			PageTitle:  page.Metadata.Title,
			PageIndex:  pageIndex,
			CoreText:   d.text,
			CoreTokens: d.tokens,
		})
	}
	return chunks
}

func pageSource(page models.Page, index int) string {
	if page.Metadata.SourceURL != "" {
		return page.Metadata.SourceURL
	}
	return fmt.Sprintf("page %d", index)
}
