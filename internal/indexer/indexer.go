// Package indexer runs the chunking pipeline over input documents and
// persists each run into storage and the keyword index.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/mdchunk/internal/chunker"
	"github.com/hyperjump/mdchunk/internal/extract"
	"github.com/hyperjump/mdchunk/internal/fileid"
	"github.com/hyperjump/mdchunk/internal/keyword"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/storage"
	"go.uber.org/zap"
)

// Indexer chunks documents and stores the resulting runs.
type Indexer struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	pipeline     *chunker.Pipeline
	extractor    *extract.Extractor
	logger       *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, run deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, a default extractor is used.
func NewIndexer(
	store storage.Storage,
	keywordIndex keyword.KeywordIndex,
	pipeline *chunker.Pipeline,
	extractor *extract.Extractor,
	opts ...IndexerOption,
) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		storage:      store,
		keywordIndex: keywordIndex,
		pipeline:     pipeline,
		extractor:    extractor,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Source describes where a document came from. ID is the run ID to use;
// when empty a random one is generated.
type Source struct {
	ID    string
	Name  string
	Size  int64
	Mtime int64
}

// IndexDocument chunks doc and stores the run. A previous run with the same ID
// is replaced. Validation problems land in the run's report, never in err.
func (idx *Indexer) IndexDocument(ctx context.Context, doc *models.Document, src Source) (*models.Run, *chunker.Result, error) {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	result, err := idx.pipeline.Run(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chunk document: %w", err)
	}
	report, err := json.Marshal(result.Report)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode report: %w", err)
	}

	if err := idx.DeleteRun(ctx, src.ID); err != nil {
		return nil, nil, err
	}
	run := &models.Run{
		ID:          src.ID,
		Source:      src.Name,
		BaseURL:     doc.BaseURL,
		Timestamp:   doc.Timestamp,
		Pages:       len(doc.Pages),
		Chunks:      len(result.Chunks),
		TotalTokens: result.Report.TotalTokens,
		Errors:      len(result.Report.Errors),
		SourceSize:  src.Size,
		SourceMtime: src.Mtime,
		Report:      report,
	}
	if err := idx.storage.SaveRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to store run: %w", err)
	}
	if err := idx.storage.BatchCreateChunks(ctx, run.ID, result.Chunks); err != nil {
		return nil, nil, fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := idx.keywordIndex.IndexChunks(ctx, run.ID, result.Chunks); err != nil {
		return nil, nil, fmt.Errorf("failed to index keywords: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer run stored",
			zap.String("run_id", run.ID),
			zap.String("source", run.Source),
			zap.Int("chunks", run.Chunks))
	}
	return run, result, nil
}

// IndexBytes decodes content as an input document of the given extension
// (".json" for crawl documents, ".md" for markdown) and indexes it under a new run.
func (idx *Indexer) IndexBytes(ctx context.Context, content []byte, ext, name string) (*models.Run, *chunker.Result, error) {
	doc, err := idx.extractor.ExtractBytes(content, ext, name)
	if err != nil {
		return nil, nil, fmt.Errorf("extract document: %w", err)
	}
	return idx.IndexDocument(ctx, doc, Source{Name: name, Size: int64(len(content))})
}

// IndexFile reads an input file and indexes it. The run ID is derived from the
// absolute path so re-indexing replaces the previous run. If allowedExts is
// non-empty, the file's extension must be in the list (case-insensitive).
// Skips chunking if the stored run has the same mtime and size; the returned
// result is nil in that case.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (*models.Run, *chunker.Result, error) {
	if idx.logger != nil {
		idx.logger.Debug("indexer indexing file", zap.String("path", path))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	runID := fileid.RunID(absPath)
	if run, ok := idx.unchanged(ctx, runID, absPath, info); ok {
		if err := idx.reindexKeywords(ctx, run.ID); err != nil {
			return nil, nil, err
		}
		if idx.logger != nil {
			idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		}
		return run, nil, nil
	}

	doc, err := idx.extractor.Extract(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("extract document: %w", err)
	}
	return idx.IndexDocument(ctx, doc, Source{
		ID:    runID,
		Name:  absPath,
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
	})
}

// unchanged returns the stored run for a file whose size and mtime did not change.
func (idx *Indexer) unchanged(ctx context.Context, runID, absPath string, info os.FileInfo) (*models.Run, bool) {
	run, err := idx.storage.GetRun(ctx, runID)
	if err != nil {
		return nil, false
	}
	if run.Source != absPath || run.SourceSize != info.Size() || run.SourceMtime != info.ModTime().UnixNano() {
		return nil, false
	}
	return run, true
}

// reindexKeywords repopulates the keyword index from storage, for when the
// index was opened empty next to an existing database.
func (idx *Indexer) reindexKeywords(ctx context.Context, runID string) error {
	chunks, err := idx.storage.GetChunksByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	if err := idx.keywordIndex.IndexChunks(ctx, runID, chunks); err != nil {
		return fmt.Errorf("failed to index keywords: %w", err)
	}
	return nil
}

// IndexDirectory walks dir recursively and indexes each regular file whose
// extension is in allowedExts (all files when empty). Returns the number of
// files indexed and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if _, _, indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			return fmt.Errorf("%s: %w", path, indexErr)
		}
		n++
		return nil
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteRun removes a run from the keyword index and storage. Deleting a
// missing run is not an error.
func (idx *Indexer) DeleteRun(ctx context.Context, id string) error {
	if idx.logger != nil {
		idx.logger.Debug("indexer deleting run", zap.String("id", id))
	}
	if err := idx.keywordIndex.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	if err := idx.storage.DeleteRun(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// DeletePath removes the run produced from the file at path.
func (idx *Indexer) DeletePath(ctx context.Context, path string) error {
	return idx.DeleteRun(ctx, fileid.RunID(path))
}
