package chunker

import (
	"github.com/hyperjump/mdchunk/internal/validator"
)

// adjust merges drafts below min_chunk_size into a neighbor when the merged
// text stays within max_tokens. The next draft is tried first and a merged
// result is examined again in its place; the previous draft is the fallback.
// Drafts that still exceed max_tokens afterwards are recorded in r.
func (c *MarkdownChunker) adjust(drafts []draft, source string, r *validator.Report) []draft {
	pending := append([]draft(nil), drafts...)
	out := make([]draft, 0, len(pending))

	for i := 0; i < len(pending); i++ {
		d := pending[i]
		if d.tokens < c.cfg.MinChunkSize {
			if i+1 < len(pending) {
				if merged := c.merge(d, pending[i+1]); merged.tokens <= c.cfg.MaxTokens {
					pending[i+1] = merged
					continue
				}
			}
			if n := len(out); n > 0 {
				if merged := c.merge(out[n-1], d); merged.tokens <= c.cfg.MaxTokens {
					out[n-1] = merged
					continue
				}
			}
		}
		out = append(out, d)
	}

	for i, d := range out {
		if d.tokens > c.cfg.MaxTokens {
			r.AddError("chunk %d of %s exceeds max_tokens (%d > %d)", i, source, d.tokens, c.cfg.MaxTokens)
		}
	}
	return out
}

// merge joins two adjacent drafts; a's headers win where set.
func (c *MarkdownChunker) merge(a, b draft) draft {
	text := a.text + "\n" + b.text
	return draft{
		headers: a.headers.Combine(b.headers),
		text:    text,
		tokens:  c.tok.Count(text),
	}
}
