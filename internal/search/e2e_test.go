package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mdchunk/internal/chunker"
	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/fileid"
	"github.com/hyperjump/mdchunk/internal/indexer"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/tokenizer"
	"github.com/hyperjump/mdchunk/internal/validator"
)

// e2eDocs are markdown pages with one signature phrase each; queries for a
// phrase must find the page that holds it.
var e2eDocs = []struct {
	slug, title, phrase, body string
}{
	{"kubernetes", "Kubernetes Docs", "kubernetes container orchestration", "Kubernetes automates deployment and scaling of workloads."},
	{"postgres", "PostgreSQL Manual", "postgresql relational database", "PostgreSQL supports JSON columns and full-text search."},
	{"redis", "Redis Cache", "redis in-memory cache", "Redis is used for sessions and rate counters."},
	{"graphql", "GraphQL Overview", "graphql query language", "Clients request exactly the fields they need."},
	{"terraform", "Terraform IaC", "terraform infrastructure modules", "Plans are reviewed before apply."},
	{"prometheus", "Prometheus Metrics", "prometheus monitoring alerts", "Scrapes targets and stores time series."},
	{"oauth", "OAuth Flows", "oauth authorization grant", "Tokens are exchanged for delegated access."},
	{"kafka", "Kafka Streams", "apache kafka streaming", "Topics are partitioned for throughput."},
	{"nginx", "Nginx Config", "nginx reverse proxy", "Upstreams are balanced round robin."},
	{"bcrypt", "Password Hashing", "password hashing bcrypt", "Cost factors slow down brute force."},
	{"canary", "Canary Release", "canary release gradual", "A small share of traffic sees the new version."},
	{"chaos", "Chaos Engineering", "chaos engineering experiments", "Faults are injected on purpose."},
}

func e2eSetup(t *testing.T) (*Engine, *indexer.Indexer, string) {
	t.Helper()
	engine, store, kw := newTestEngine(t)

	cfg := config.DefaultChunking()
	cfg.MinChunkSize = 1
	c, err := chunker.NewMarkdownChunker(cfg, tokenizer.NewWord())
	if err != nil {
		t.Fatal(err)
	}
	pipeline := chunker.NewPipeline(c, validator.New(cfg.MinChunkSize, cfg.MaxTokens))
	idx := indexer.NewIndexer(store, kw, pipeline, nil)

	dir := t.TempDir()
	for _, d := range e2eDocs {
		md := fmt.Sprintf("# %s\n\nThis page covers %s.\n\n## Notes\n%s\n", d.title, d.phrase, d.body)
		if err := os.WriteFile(filepath.Join(dir, d.slug+".md"), []byte(md), 0644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := idx.IndexDirectory(context.Background(), dir, []string{".md"})
	if err != nil {
		t.Fatal(err)
	}
	if n != len(e2eDocs) {
		t.Fatalf("indexed %d documents, want %d", n, len(e2eDocs))
	}
	return engine, idx, dir
}

func sources(resp *models.SearchResponse) []string {
	out := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.Chunk.Metadata.SourceURL
	}
	return out
}

func TestE2E_SignaturePhrases(t *testing.T) {
	engine, _, dir := e2eSetup(t)
	ctx := context.Background()

	for _, d := range e2eDocs {
		t.Run(d.slug, func(t *testing.T) {
			want, _ := filepath.Abs(filepath.Join(dir, d.slug+".md"))
			resp, err := engine.Search(ctx, &models.SearchQuery{Query: `"` + d.phrase + `"`, Limit: 3})
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Results) == 0 {
				t.Fatalf("no results for %q", d.phrase)
			}
			if got := resp.Results[0].Chunk.Metadata.SourceURL; got != want {
				t.Errorf("top result for %q = %s, want %s (all: %v)", d.phrase, got, want, sources(resp))
			}
		})
	}
}

func TestE2E_NegationAndRunFilter(t *testing.T) {
	engine, _, dir := e2eSetup(t)
	ctx := context.Background()
	kube, _ := filepath.Abs(filepath.Join(dir, "kubernetes.md"))
	pg, _ := filepath.Abs(filepath.Join(dir, "postgres.md"))

	resp, err := engine.Search(ctx, &models.SearchQuery{Query: "page covers -kubernetes", Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results for a term every page has")
	}
	for _, s := range sources(resp) {
		if s == kube {
			t.Errorf("negated page returned: %v", sources(resp))
		}
	}

	resp, err = engine.Search(ctx, &models.SearchQuery{Query: "page covers", Limit: 50, RunID: fileid.RunID(pg)})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected results within the run")
	}
	for _, s := range sources(resp) {
		if s != pg {
			t.Errorf("run filter leaked %s", s)
		}
	}
}

func TestE2E_DeletedPathDisappears(t *testing.T) {
	engine, idx, dir := e2eSetup(t)
	ctx := context.Background()
	path := filepath.Join(dir, "redis.md")

	if err := idx.DeletePath(ctx, path); err != nil {
		t.Fatal(err)
	}
	resp, err := engine.Search(ctx, &models.SearchQuery{Query: "redis"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Errorf("expected no results after delete, got %v", sources(resp))
	}
}
