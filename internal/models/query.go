package models

import "fmt"

// SearchQuery is a keyword lookup over emitted chunks.
type SearchQuery struct {
	Query        string `json:"query"`
	Limit        int    `json:"limit,omitempty"`
	FuzzyEnabled bool   `json:"fuzzy_enabled,omitempty"` // enable fuzzy matching for typo tolerance
	RunID        string `json:"run_id,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes limit.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
