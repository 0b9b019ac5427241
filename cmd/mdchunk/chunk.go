package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/mdchunk/internal/chunker"
	"github.com/hyperjump/mdchunk/internal/extract"
	"github.com/hyperjump/mdchunk/internal/fileid"
	"github.com/hyperjump/mdchunk/internal/indexer"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/storage"
)

// chunkOptions are the paths of one chunk invocation.
type chunkOptions struct {
	Input           string
	ChunksPath      string
	DiagnosticsPath string
	ReportPath      string // optional
}

// chunkFile loads the input document and runs the pipeline over it.
func chunkFile(ctx context.Context, pipeline *chunker.Pipeline, opts chunkOptions) (*chunker.Result, error) {
	doc, err := extract.NewExtractor().Extract(opts.Input)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, doc)
}

// chunkAndStore chunks the input and stores the run under the input's path ID,
// replacing any earlier run of the same file.
func chunkAndStore(ctx context.Context, idx *indexer.Indexer, opts chunkOptions) (*chunker.Result, error) {
	absPath, err := filepath.Abs(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	doc, err := extract.NewExtractor().Extract(absPath)
	if err != nil {
		return nil, err
	}
	_, result, err := idx.IndexDocument(ctx, doc, indexer.Source{
		ID:    fileid.RunID(absPath),
		Name:  absPath,
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
	})
	return result, err
}

// writeArtifacts writes the chunk file, the diagnostics file when any chunk is
// out of bounds, and the report when requested. Reports whether diagnostics
// were written.
func writeArtifacts(result *chunker.Result, opts chunkOptions) (bool, error) {
	if err := storage.WriteChunksJSON(opts.ChunksPath, models.Records(result.Chunks)); err != nil {
		return false, err
	}
	wroteDiag, err := storage.WriteDiagnosticsJSON(opts.DiagnosticsPath, result.Diagnostics)
	if err != nil {
		return false, err
	}
	if opts.ReportPath != "" {
		if err := storage.WriteReportJSON(opts.ReportPath, result.Report); err != nil {
			return wroteDiag, err
		}
	}
	return wroteDiag, nil
}
