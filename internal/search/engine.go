// Package search runs keyword lookups over stored chunks so chunk quality can
// be inspected from the CLI and HTTP API.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/mdchunk/internal/keyword"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/storage"
	"go.uber.org/zap"
)

const (
	// candidateFactor widens the keyword fetch so re-ranking and negation
	// filtering still leave enough hits for the requested limit.
	candidateFactor    = 3
	defaultHeaderBoost = 2.0
)

// Engine runs keyword search over the chunk store.
type Engine struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	headerBoost  float64
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithHeaderBoost sets the index-side boost for h1/h2/h3 and title matches.
func WithHeaderBoost(b float64) Option {
	return func(e *Engine) {
		if b > 0 {
			e.headerBoost = b
		}
	}
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Storage, keywordIndex keyword.KeywordIndex, opts ...Option) *Engine {
	e := &Engine{
		storage:      store,
		keywordIndex: keywordIndex,
		headerBoost:  defaultHeaderBoost,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search validates the query, runs it against the keyword index, hydrates
// hits from storage and returns them ranked. Hits whose chunk is gone from
// storage are skipped.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	analyzed := analyzeQuery(query.Query)
	response := &models.SearchResponse{
		Results: []*models.SearchResult{},
		Query:   query.Query,
	}
	if analyzed.Text == "" {
		response.QueryTime = time.Since(startTime).Milliseconds()
		return response, nil
	}

	results, err := e.keywordIndex.Search(ctx, analyzed.Text, query.Limit*candidateFactor, &keyword.SearchOptions{
		HeaderBoost:  e.headerBoost,
		FuzzyEnabled: query.FuzzyEnabled,
		RunID:        query.RunID,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]hit, 0, len(results))
	for _, r := range results {
		chunk, err := e.storage.GetChunk(ctx, r.ID)
		if errors.Is(err, storage.ErrNotFound) {
			if e.logger != nil {
				e.logger.Debug("search hit missing from storage", zap.String("chunk_id", r.ID))
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %s: %w", r.ID, err)
		}
		hits = append(hits, hit{chunk: chunk, score: r.Score})
	}
	hits = rerank(analyzed, hits)

	response.Total = len(hits)
	if len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	for i, h := range hits {
		rec := h.chunk.Record()
		response.Results = append(response.Results, &models.SearchResult{
			Chunk: &rec,
			Score: h.score,
			Rank:  i + 1,
		})
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	if e.logger != nil {
		e.logger.Debug("search done",
			zap.String("query", query.Query),
			zap.Int("total", response.Total),
			zap.Int64("ms", response.QueryTime))
	}
	return response, nil
}
