package validator

import (
	"strings"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/pkg/utils"
	"go.uber.org/zap"
)

// Inline code markers written by the splitter; stripped before comparing content.
const (
	CodeOpen  = "<code>"
	CodeClose = "</code>"
)

// Validator audits the final chunk list of a run against its Report.
type Validator struct {
	minChunkSize int
	maxTokens    int
	logger       *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets a logger for debug output (duplicates dropped, content deltas).
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a validator for the given size bounds.
func New(minChunkSize, maxTokens int, opts ...Option) *Validator {
	v := &Validator{minChunkSize: minChunkSize, maxTokens: maxTokens}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = utils.OrNop(v.logger)
	return v
}

// Validate runs the end-of-run checks and returns the chunk list without
// duplicates plus the out-of-bound records. The input slice is not modified.
func (v *Validator) Validate(r *Report, chunks []*models.Chunk) ([]*models.Chunk, *models.Diagnostics) {
	v.checkContent(r, chunks)

	kept := v.dropDuplicates(r, chunks)

	r.TotalChunks = len(kept)
	r.TotalTokens = 0
	r.TooSmall, r.TooLarge = 0, 0
	diag := &models.Diagnostics{}
	sizes := make([]int, 0, len(kept))
	for _, c := range kept {
		r.TotalTokens += c.TokenCount
		sizes = append(sizes, c.TokenCount)
		for level := 1; level <= 3; level++ {
			r.HeadingsPreserved.Add(level, c.Headers.Level(level))
		}
		switch {
		case c.TokenCount < v.minChunkSize:
			r.TooSmall++
			diag.TooSmall = append(diag.TooSmall, outOfBound(c))
		case c.TokenCount > v.maxTokens:
			r.TooLarge++
			diag.TooLarge = append(diag.TooLarge, outOfBound(c))
		}
	}
	r.Distribution = utils.Describe(sizes)
	return kept, diag
}

// checkContent compares the stripped pages with the concatenated core texts.
// A mismatch is recorded, never fatal.
func (v *Validator) checkContent(r *Report, chunks []*models.Chunk) {
	original := normalizeContent(strings.Join(r.pages, "\n"))
	cores := make([]string, len(chunks))
	for i, c := range chunks {
		cores[i] = c.CoreText
	}
	reconstructed := normalizeContent(strings.Join(cores, "\n"))

	r.OriginalChars = len(original)
	r.ReconstructedChars = len(reconstructed)
	r.CharDelta = r.OriginalChars - r.ReconstructedChars
	r.CharDeltaPercent = 0
	if r.OriginalChars > 0 {
		r.CharDeltaPercent = float64(r.CharDelta) / float64(r.OriginalChars) * 100
	}
	r.ContentMissing = original != reconstructed
	if r.ContentMissing {
		r.AddError("content_missing: reconstructed text differs from original by %d chars (%.2f%%)",
			r.CharDelta, r.CharDeltaPercent)
		v.logger.Debug("content mismatch",
			zap.Int("original_chars", r.OriginalChars),
			zap.Int("reconstructed_chars", r.ReconstructedChars))
	}
}

// dropDuplicates filters chunks whose trimmed core text was already seen,
// keeping the first. Overlap is ignored, so two identical pages still collide
// when the second one received overlap from the first.
func (v *Validator) dropDuplicates(r *Report, chunks []*models.Chunk) []*models.Chunk {
	seen := make(map[string]string, len(chunks))
	kept := make([]*models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := strings.TrimSpace(c.CoreText)
		if firstID, dup := seen[key]; dup {
			r.DuplicatesRemoved++
			r.AddError("duplicate chunk %s dropped (same text as %s)", c.ID, firstID)
			v.logger.Debug("duplicate chunk dropped", zap.String("id", c.ID), zap.String("first", firstID))
			continue
		}
		seen[key] = c.ID
		kept = append(kept, c)
	}
	return kept
}

// normalizeContent removes code markers, backticks and whitespace differences
// so that line joins and inline-code rewriting do not count as lost content.
func normalizeContent(s string) string {
	s = strings.ReplaceAll(s, CodeOpen, "")
	s = strings.ReplaceAll(s, CodeClose, "")
	s = strings.ReplaceAll(s, "`", "")
	return strings.Join(strings.Fields(s), " ")
}

func outOfBound(c *models.Chunk) models.OutOfBoundChunk {
	return models.OutOfBoundChunk{
		ID:      c.ID,
		Size:    c.TokenCount,
		Headers: c.Headers,
		Text:    c.Text,
	}
}
