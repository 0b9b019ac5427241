package chunker

import (
	"strings"
	"testing"

	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSection_SoftLimit(t *testing.T) {
	c := newTestChunker(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 20, 12, 0
	})
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "w w w w w"
	}
	s := Section{Headers: models.Headers{H1: "A"}, Content: strings.Join(lines, "\n")}

	drafts := c.splitSection(s)
	require.Len(t, drafts, 5)
	for _, d := range drafts {
		assert.Equal(t, 10, d.tokens)
		assert.LessOrEqual(t, d.tokens, 12)
		assert.Equal(t, models.Headers{H1: "A"}, d.headers)
	}
}

func TestSplitSection_InlineCode(t *testing.T) {
	c := newTestChunker(t, nil)
	drafts := c.splitSection(Section{Content: "use `go test` now"})
	require.Len(t, drafts, 1)
	assert.Equal(t, "use <code>go test</code> now", drafts[0].text)
}

func TestSplitSection_CodeBlockKeptWhole(t *testing.T) {
	c := newTestChunker(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 50, 5, 0
	})
	block := "```\na b `x`\nd e f\n```"
	drafts := c.splitSection(Section{Content: "intro text\n" + block})

	require.Len(t, drafts, 2)
	assert.Equal(t, "intro text", drafts[0].text)
	assert.Equal(t, block, drafts[1].text)
}

func TestSplitSection_OversizedCodeBlock(t *testing.T) {
	c := newTestChunker(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 20, 15, 0
	})
	para := "x x x\nx x x"
	block := "```go\n" + strings.Join([]string{para, para, para, para}, "\n\n") + "\n```"
	require.Greater(t, c.tok.Count(block), 20)

	drafts := c.splitSection(Section{Content: block})
	require.Len(t, drafts, 2)
	for _, d := range drafts {
		assert.True(t, strings.HasPrefix(d.text, "```go\n"), d.text)
		assert.True(t, strings.HasSuffix(d.text, "\n```"), d.text)
		assert.LessOrEqual(t, d.tokens, 20)
	}
	assert.Equal(t, "```go\n"+para+"\n\n"+para+"\n```", drafts[0].text)
}

func TestSplitCodeBlock_FallsBackToLines(t *testing.T) {
	c := newTestChunker(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 10, 6, 0
	})
	block := []string{"~~~", "a a", "b b", "c c", "d d", "~~~"}

	pieces := c.splitCodeBlock(block)
	require.Len(t, pieces, 2)
	assert.Equal(t, "~~~\na a\nb b\n~~~", pieces[0])
	assert.Equal(t, "~~~\nc c\nd d\n~~~", pieces[1])
}

func TestSplitSection_UnclosedBlockSplitsByLine(t *testing.T) {
	c := newTestChunker(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 10, 6, 0
	})
	drafts := c.splitSection(Section{Content: "```\na a a\nb b b\nc c c"})
	require.Len(t, drafts, 2)
	assert.Equal(t, "```\na a a", drafts[0].text)
	assert.Equal(t, "b b b\nc c c", drafts[1].text)
}

func TestParagraphs(t *testing.T) {
	got := paragraphs([]string{"a", "b", "", "", "c", "", "d"})
	assert.Equal(t, [][]string{{"a", "b", "", ""}, {"c", ""}, {"d"}}, got)
}

func TestTrimBlankLines(t *testing.T) {
	assert.Equal(t, "  indented\nx", trimBlankLines("\n  \n  indented\nx\n\t\n"))
	assert.Equal(t, "", trimBlankLines("\n\n"))
}
