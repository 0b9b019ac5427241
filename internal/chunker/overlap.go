package chunker

import (
	"math"
	"strings"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/tokenizer"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/hyperjump/mdchunk/pkg/utils"
	"go.uber.org/zap"
)

const overlapSeparator = "\n"

// overlapSize returns how many tokens of a previous chunk with prevTokens
// core tokens should be copied forward, before headroom is considered.
func (c *MarkdownChunker) overlapSize(prevTokens int) int {
	n := int(math.Round(float64(prevTokens) * c.cfg.OverlapPercentage))
	n = utils.ClampInt(n, c.cfg.MinOverlapTokens, c.cfg.MaxOverlapTokens)
	if n > prevTokens {
		n = prevTokens
	}
	return n
}

// ApplyOverlap prepends to every chunk but the first the last tokens of the
// previous chunk's core text. Overlap is always taken from the pre-overlap
// text, so it never cascades. A chunk with no room left under max_tokens keeps
// its core text and the skip is recorded in r.
func (c *MarkdownChunker) ApplyOverlap(chunks []*models.Chunk, r *validator.Report) {
	across := c.cfg.OverlapAcrossPagesOrDefault()

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if !across && prev.PageIndex != cur.PageIndex {
			continue
		}

		want := c.overlapSize(prev.CoreTokens)
		if want <= 0 {
			continue
		}
		headroom := c.cfg.MaxTokens - cur.CoreTokens
		if headroom <= 0 {
			r.AddError("no room for overlap in chunk %s (%d of %d tokens used)", cur.ID, cur.CoreTokens, c.cfg.MaxTokens)
			continue
		}
		if want > headroom {
			want = headroom
		}

		text, tokens, taken := c.withOverlap(prev.CoreText, cur.CoreText, want)
		if taken == 0 {
			if tokens > c.cfg.MaxTokens {
				r.AddError("overlap would push chunk %s over max_tokens", cur.ID)
			}
			continue
		}

		cur.Text = text
		cur.TokenCount = tokens
		cur.OverlapTokens = taken
		if c.logger != nil {
			c.logger.Debug("overlap applied",
				zap.String("chunk_id", cur.ID),
				zap.Int("overlap_tokens", taken),
				zap.Int("token_count", tokens))
		}
	}
}

// withOverlap joins the last want tokens of prev onto core. The joined text is
// recounted, and when the separator pushes it past max_tokens the tail gives
// up a token at a time. taken is 0 when no tail fits; tokens then holds the
// count of the last rejected candidate.
func (c *MarkdownChunker) withOverlap(prev, core string, want int) (text string, tokens, taken int) {
	for ; want > 0; want-- {
		tail, n := tokenizer.Tail(c.tok, prev, want)
		tail = strings.TrimSpace(tail)
		if tail == "" {
			return "", 0, 0
		}
		text = tail + overlapSeparator + core
		tokens = c.tok.Count(text)
		if tokens <= c.cfg.MaxTokens {
			return text, tokens, n
		}
	}
	return "", tokens, 0
}
