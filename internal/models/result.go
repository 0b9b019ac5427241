package models

import (
	"encoding/json"
	"time"
)

// SearchResult is a single keyword hit over stored chunks.
type SearchResult struct {
	Chunk *ChunkRecord `json:"chunk"`
	Score float64      `json:"score"`
	Rank  int          `json:"rank"`
}

// SearchResponse is the response for a chunk search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	AutoFuzzy bool            `json:"auto_fuzzy,omitempty"` // set when fuzzy matching was retried after no hits
}

// Run describes one completed chunking run over a document.
type Run struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	BaseURL     string          `json:"base_url"`
	Timestamp   string          `json:"timestamp"`
	Pages       int             `json:"pages"`
	Chunks      int             `json:"chunks"`
	TotalTokens int             `json:"total_tokens"`
	Errors      int             `json:"errors"`
	SourceSize  int64           `json:"source_size,omitempty"`
	SourceMtime int64           `json:"source_mtime,omitempty"`
	Report      json.RawMessage `json:"report,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
