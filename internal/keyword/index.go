// Package keyword provides a keyword (BM25) index over emitted chunks, used to
// inspect chunk quality from the CLI and HTTP API.
package keyword

import (
	"context"

	"github.com/hyperjump/mdchunk/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// HeaderBoost multiplies the score contribution of matches in the h1/h2/h3
	// and page title fields. Use 1.0 for no boost.
	HeaderBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 2 when FuzzyEnabled is true.
	Fuzziness int
	// RunID restricts hits to the chunks of one run.
	RunID string
}

// KeywordIndex defines keyword search operations.
type KeywordIndex interface {
	IndexChunks(ctx context.Context, runID string, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	DeleteRun(ctx context.Context, runID string) error
	// DocCount returns the total number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit. ID is the chunk ID.
type KeywordResult struct {
	ID    string
	Score float64
}
