package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/tokenizer"
	"github.com/stretchr/testify/require"
)

// newTestChunker returns a chunker over the word tokenizer, so every
// space-separated word counts as exactly one token.
func newTestChunker(t *testing.T, mutate func(*config.ChunkingConfig)) *MarkdownChunker {
	t.Helper()
	cfg := config.DefaultChunking()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewMarkdownChunker(cfg, tokenizer.NewWord())
	require.NoError(t, err)
	return c
}

// words returns "<prefix>1 <prefix>2 ... <prefix>n".
func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return strings.Join(parts, " ")
}

func (c *MarkdownChunker) draftOf(text string) draft {
	return draft{text: text, tokens: c.tok.Count(text)}
}
