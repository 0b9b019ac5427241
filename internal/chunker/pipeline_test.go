package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, mutate func(*config.ChunkingConfig)) *Pipeline {
	t.Helper()
	c := newTestChunker(t, mutate)
	return NewPipeline(c, validator.New(c.cfg.MinChunkSize, c.cfg.MaxTokens))
}

func page(url, markdown string) models.Page {
	return models.Page{Markdown: markdown, Metadata: models.PageMetadata{SourceURL: url, Title: url}}
}

func TestPipeline_TwoPages(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.ChunkingConfig) { cfg.MinChunkSize = 1 })
	doc := &models.Document{Pages: []models.Page{
		page("https://example.com/1", "# A\n===\npara1\n\n## B\n---\npara2"),
		page("https://example.com/2", "# C\n===\npara3"),
	}}

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 3)

	assert.Equal(t, models.Headers{H1: "A"}, res.Chunks[0].Headers)
	assert.Equal(t, models.Headers{H1: "A", H2: "B"}, res.Chunks[1].Headers)
	assert.Equal(t, models.Headers{H1: "C"}, res.Chunks[2].Headers)
	assert.Equal(t, "https://example.com/2", res.Chunks[2].SourceURL)

	r := res.Report
	assert.Empty(t, r.Errors)
	assert.False(t, r.ContentMissing)
	assert.Equal(t, 2, r.Pages())
	assert.Equal(t, 3, r.TotalChunks)
	assert.Equal(t, []string{"A", "C"}, r.HeadingsPreserved.Sorted(1))
	assert.Equal(t, []string{"B"}, r.HeadingsPreserved.Sorted(2))
	assert.True(t, res.Diagnostics.Empty())

	total := 0
	for _, c := range res.Chunks {
		total += c.TokenCount
		assert.NotEmpty(t, c.ID)
	}
	assert.Equal(t, total, r.TotalTokens)
	assert.Equal(t, "# A\n===\npara1\n## B\n---\npara2", res.Chunks[1].Text)
}

func TestPipeline_HeaderOnlySectionJoinsNext(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.ChunkingConfig) {
		cfg.MinChunkSize = 1
	})
	doc := &models.Document{Pages: []models.Page{page("u", "# A\n## B\ntext")}}

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, models.Headers{H1: "A", H2: "B"}, res.Chunks[0].Headers)
	assert.Equal(t, "# A\n## B\ntext", res.Chunks[0].CoreText)
	assert.False(t, res.Report.ContentMissing)
}

func TestPipeline_PreservesPageOrder(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.ChunkingConfig) {
		cfg.MinChunkSize = 1
		cfg.Workers = 4
	})
	doc := &models.Document{}
	for i := 0; i < 20; i++ {
		doc.Pages = append(doc.Pages, page(fmt.Sprintf("u%d", i), fmt.Sprintf("# P%d\nbody %d", i, i)))
	}

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 20)
	for i, c := range res.Chunks {
		assert.Equal(t, fmt.Sprintf("P%d", i), c.Headers.H1)
		assert.Equal(t, i, c.PageIndex)
	}
}

func TestPipeline_DropsDuplicates(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.ChunkingConfig) {
		cfg.MinChunkSize = 1
	})
	require.True(t, p.chunker.cfg.OverlapAcrossPagesOrDefault())
	doc := &models.Document{Pages: []models.Page{
		page("u1", "# Same\nshared body text"),
		page("u2", "# Same\nshared body text"),
	}}

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "u1", res.Chunks[0].SourceURL)
	assert.Equal(t, 1, res.Report.DuplicatesRemoved)
	assert.False(t, res.Report.ContentMissing)
}

func TestPipeline_BoundedSize(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 50, 40, 10
	})
	var b strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "## Part %d\n", i)
		for j := 0; j < 7; j++ {
			b.WriteString("lorem ipsum dolor sit amet\n")
		}
		b.WriteString("\n")
	}
	doc := &models.Document{Pages: []models.Page{page("u", b.String())}}

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	require.NotEmpty(t, res.Chunks)

	tok := p.chunker.Tokenizer()
	for _, c := range res.Chunks {
		assert.LessOrEqual(t, c.TokenCount, 50)
		assert.Equal(t, tok.Count(c.Text), c.TokenCount)
		assert.Equal(t, tok.Count(c.CoreText), c.CoreTokens)
	}
	assert.False(t, res.Report.ContentMissing)
}

func TestPipeline_ContentPreserved(t *testing.T) {
	p := newTestPipeline(t, func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 30, 20, 1
	})
	md := "[Home](/)\nSearch\n# Guide\nRun `make build` first.\n\n```sh\nmake build\n# not a header\n```\n\n## Setup\n" +
		words("s", 25) + "\n\n### Notes\nfinal words here"
	doc := &models.Document{Pages: []models.Page{page("u", md)}}

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, res.Report.ContentMissing, res.Report.Errors)
	assert.Equal(t, 0, res.Report.CharDelta)

	var joined []string
	for _, c := range res.Chunks {
		joined = append(joined, c.CoreText)
		assert.NotContains(t, c.CoreText, "[Home](/)")
	}
	assert.Contains(t, strings.Join(joined, "\n"), "<code>make build</code>")
	assert.Equal(t, []string{"Notes"}, res.Report.HeadingsPreserved.Sorted(3))
}

func TestPipeline_EmptyDocument(t *testing.T) {
	p := newTestPipeline(t, nil)
	res, err := p.Run(context.Background(), &models.Document{})
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.False(t, res.Report.ContentMissing)
}

func TestPipeline_Errors(t *testing.T) {
	p := newTestPipeline(t, nil)

	_, err := p.Run(context.Background(), nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, &models.Document{Pages: []models.Page{page("u", "text")}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewMarkdownChunker_RejectsBadConfig(t *testing.T) {
	cfg := config.DefaultChunking()
	cfg.SoftTokenLimit = cfg.MaxTokens + 1
	_, err := NewMarkdownChunker(cfg, nil)
	require.Error(t, err)

	_, err = NewMarkdownChunker(cfg, nullTokenizer{})
	require.Error(t, err)
}

type nullTokenizer struct{}

func (nullTokenizer) Encode(string) []int { return nil }
func (nullTokenizer) Decode([]int) string { return "" }
func (nullTokenizer) Count(string) int { return 0 }
