package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fencedComment = "# Comment inside a fence"

var corpusTopics = []struct {
	title string
	slug  string
}{
	{"Python Guide", "py"},
	{"Kubernetes Docs", "k8s"},
	{"React Tutorial", "react"},
	{"Go Language", "go"},
	{"PostgreSQL Manual", "pg"},
	{"Docker Handbook", "docker"},
	{"REST API Design", "rest"},
	{"GraphQL Overview", "gql"},
	{"Redis Cache", "redis"},
	{"Terraform IaC", "tf"},
	{"Prometheus Metrics", "prom"},
	{"OAuth Flows", "oauth"},
	{"Git Workflow", "git"},
	{"Kafka Streams", "kafka"},
	{"Nginx Config", "nginx"},
	{"Chunking Strategy", "chunk"},
}

// buildCorpus returns a crawl document of n pages. Every page carries
// boilerplate lines, nested headings, a fenced code block with a
// header-like line, and one section long enough to be split. Body words are
// unique per page so no chunk is a duplicate of another.
func buildCorpus(n int) *models.Document {
	doc := &models.Document{BaseURL: "https://corpus.example.com", Timestamp: "2024-01-01T00:00:00Z"}
	for i := 0; i < n; i++ {
		topic := corpusTopics[i%len(corpusTopics)]
		title := fmt.Sprintf("%s %d", topic.title, i)
		prefix := fmt.Sprintf("%s%d", topic.slug, i)

		var b strings.Builder
		b.WriteString("[Home](/)\nSearch\n")
		fmt.Fprintf(&b, "# %s\n%s.\n\n", title, words(prefix+"i", 12))
		fmt.Fprintf(&b, "## Overview\n%s.\n\n", words(prefix+"o", 20+(i%5)*8))
		fmt.Fprintf(&b, "## Usage\nRun `%s --help` to list flags.\n\n", topic.slug)
		fmt.Fprintf(&b, "```sh\n%s\n%s init %d\n```\n\n", fencedComment, topic.slug, i)
		fmt.Fprintf(&b, "### Details %d\n", i)
		for j := 0; j < 4; j++ {
			fmt.Fprintf(&b, "%s.\n", words(fmt.Sprintf("%sd%d_", prefix, j), 22))
		}
		doc.Pages = append(doc.Pages, models.Page{
			Markdown: b.String(),
			Metadata: models.PageMetadata{
				SourceURL: fmt.Sprintf("https://corpus.example.com/%s/%d", topic.slug, i),
				Title:     title,
			},
		})
	}
	return doc
}

func corpusConfig(workers int) func(*config.ChunkingConfig) {
	return func(cfg *config.ChunkingConfig) {
		cfg.MaxTokens, cfg.SoftTokenLimit, cfg.MinChunkSize = 60, 45, 5
		cfg.OverlapPercentage, cfg.MinOverlapTokens, cfg.MaxOverlapTokens = 0.1, 2, 6
		cfg.Workers = workers
	}
}

func TestBuildCorpus(t *testing.T) {
	doc := buildCorpus(40)
	require.Len(t, doc.Pages, 40)
	seen := map[string]bool{}
	for _, p := range doc.Pages {
		assert.False(t, seen[p.Metadata.SourceURL], "duplicate url %s", p.Metadata.SourceURL)
		seen[p.Metadata.SourceURL] = true
		assert.Contains(t, p.Markdown, fencedComment)
	}
}

func TestPipeline_CorpusProperties(t *testing.T) {
	const pages = 40
	p := newTestPipeline(t, corpusConfig(4))
	doc := buildCorpus(pages)

	res, err := p.Run(context.Background(), doc)
	require.NoError(t, err)
	require.Greater(t, len(res.Chunks), pages, "long sections should split into several chunks per page")

	r := res.Report
	assert.Equal(t, pages, r.Pages())
	assert.False(t, r.ContentMissing, r.Errors)
	assert.Zero(t, r.DuplicatesRemoved)
	assert.Equal(t, len(res.Chunks), r.TotalChunks)

	tok := p.chunker.Tokenizer()
	total := 0
	lastPage := 0
	for _, c := range res.Chunks {
		total += c.TokenCount
		assert.LessOrEqual(t, c.TokenCount, 60, "chunk %s", c.ID)
		assert.Equal(t, tok.Count(c.Text), c.TokenCount)

		assert.GreaterOrEqual(t, c.PageIndex, lastPage, "chunks must stay in page order")
		lastPage = c.PageIndex
		assert.Equal(t, doc.Pages[c.PageIndex].Metadata.SourceURL, c.SourceURL)
		assert.Equal(t, doc.Pages[c.PageIndex].Metadata.Title, c.PageTitle)

		assert.NotContains(t, c.CoreText, "[Home](/)")
		for level := 1; level <= 3; level++ {
			assert.NotEqual(t, strings.TrimLeft(fencedComment, "# "), c.Headers.Level(level), "fenced line became a heading")
		}
	}
	assert.Equal(t, total, r.TotalTokens)
	assert.Equal(t, pages-1, lastPage)

	ratio, ok := r.PreservationRatio(1)
	require.True(t, ok)
	assert.Equal(t, 1.0, ratio)
	assert.Equal(t, pages, r.HeadingsPreserved.Len(1))
}

func TestPipeline_CorpusDeterministicAcrossWorkers(t *testing.T) {
	doc := buildCorpus(24)

	texts := func(workers int) []string {
		res, err := newTestPipeline(t, corpusConfig(workers)).Run(context.Background(), doc)
		require.NoError(t, err)
		out := make([]string, len(res.Chunks))
		for i, c := range res.Chunks {
			out[i] = c.Text
		}
		return out
	}

	sequential := texts(1)
	assert.Equal(t, sequential, texts(4))
	assert.Equal(t, sequential, texts(16))
}
