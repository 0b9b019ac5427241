package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mdchunk/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "chunks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_Runs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &models.Run{
		ID:          "run1",
		Source:      "/docs/crawl.json",
		BaseURL:     "https://example.com",
		Timestamp:   "2024-01-01T00:00:00Z",
		Pages:       2,
		Chunks:      3,
		TotalTokens: 120,
		SourceSize:  2048,
		SourceMtime: 1700000000123456789,
		Report:      json.RawMessage(`{"total_chunks":3}`),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetRun(ctx, "run1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != run.Source || got.Pages != 2 || got.Chunks != 3 || got.TotalTokens != 120 {
		t.Errorf("got %+v", got)
	}
	if got.SourceMtime != run.SourceMtime {
		t.Errorf("mtime: got %d, want %d", got.SourceMtime, run.SourceMtime)
	}
	if string(got.Report) != `{"total_chunks":3}` {
		t.Errorf("report: got %s", got.Report)
	}

	run.Chunks = 4
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	list, err := store.ListRuns(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Chunks != 4 {
		t.Errorf("expected 1 replaced run, got %+v", list)
	}

	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_Chunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, &models.Run{ID: "r1", Source: "s"}); err != nil {
		t.Fatal(err)
	}
	chunks := []*models.Chunk{
		{ID: "c1", Headers: models.Headers{H1: "A"}, Text: "alpha", CoreText: "alpha", TokenCount: 1, CoreTokens: 1,
			SourceURL: "https://example.com/a", PageTitle: "A"},
		{ID: "c2", Headers: models.Headers{H1: "A", H2: "B"}, Text: "alpha\nbeta", CoreText: "beta", TokenCount: 2,
			CoreTokens: 1, OverlapTokens: 1, SourceURL: "https://example.com/a", PageTitle: "A"},
		{ID: "c3", Headers: models.Headers{H1: "C"}, Text: "gamma", CoreText: "gamma", TokenCount: 1, CoreTokens: 1,
			PageIndex: 1},
	}
	if err := store.BatchCreateChunks(ctx, "r1", chunks); err != nil {
		t.Fatal(err)
	}

	list, err := store.GetChunksByRun(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(list))
	}
	for i, c := range list {
		if c.ID != chunks[i].ID {
			t.Errorf("position %d: got %s, want %s", i, c.ID, chunks[i].ID)
		}
	}

	got, err := store.GetChunk(ctx, "c2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Headers != (models.Headers{H1: "A", H2: "B"}) {
		t.Errorf("headers: got %+v", got.Headers)
	}
	if got.Text != "alpha\nbeta" || got.CoreText != "beta" || got.CoreTokens != 1 || got.OverlapTokens != 1 {
		t.Errorf("got %+v", got)
	}
	if got.SourceURL != "https://example.com/a" || got.PageTitle != "A" {
		t.Errorf("metadata: got %q %q", got.SourceURL, got.PageTitle)
	}

	if _, err := store.GetChunk(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	if err := store.DeleteRun(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	list, _ = store.GetChunksByRun(ctx, "r1")
	if len(list) != 0 {
		t.Errorf("expected 0 chunks after delete, got %d", len(list))
	}
	if _, err := store.GetRun(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("run should be gone, err = %v", err)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.CountRuns(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountRuns: %v, %d", err, n)
	}
	_ = store.SaveRun(ctx, &models.Run{ID: "x", Source: "s"})
	_ = store.BatchCreateChunks(ctx, "x", []*models.Chunk{{ID: "a", Text: "a", CoreText: "a"}, {ID: "b", Text: "b", CoreText: "b"}})

	n, _ = store.CountRuns(ctx)
	if n != 1 {
		t.Errorf("expected 1 run, got %d", n)
	}
	n, _ = store.CountChunks(ctx)
	if n != 2 {
		t.Errorf("expected 2 chunks, got %d", n)
	}
}

func TestSQLiteStorage_DuplicateChunkID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	chunks := []*models.Chunk{{ID: "same", Text: "a", CoreText: "a"}, {ID: "same", Text: "b", CoreText: "b"}}
	if err := store.BatchCreateChunks(ctx, "r", chunks); err == nil {
		t.Error("expected error for duplicate chunk id")
	}
	n, _ := store.CountChunks(ctx)
	if n != 0 {
		t.Errorf("batch should roll back, got %d chunks", n)
	}
}
