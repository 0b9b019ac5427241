package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/mdchunk/internal/models"
)

const (
	fieldRunID     = "run_id"
	fieldText      = "text"
	fieldPageTitle = "page_title"
	fieldSourceURL = "source_url"

	deleteBatchSize = 500
)

var headerFields = []string{"h1", "h2", "h3", fieldPageTitle}

// chunkDocument is the shape stored in the index for each chunk.
type chunkDocument struct {
	RunID     string `json:"run_id"`
	Text      string `json:"text"`
	H1        string `json:"h1"`
	H2        string `json:"h2"`
	H3        string `json:"h3"`
	PageTitle string `json:"page_title"`
	SourceURL string `json:"source_url"`
}

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so identifiers in
	// code samples match as written.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldText, textFieldMapping)
	for _, f := range headerFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt(fieldRunID, keywordFieldMapping)
	docMapping.AddFieldMappingsAt(fieldSourceURL, keywordFieldMapping)
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexChunks indexes the chunks of a run in one batch, keyed by chunk ID.
func (b *BleveIndex) IndexChunks(ctx context.Context, runID string, chunks []*models.Chunk) error {
	batch := b.index.NewBatch()
	for _, c := range chunks {
		doc := chunkDocument{
			RunID:     runID,
			Text:      c.Text,
			H1:        c.Headers.H1,
			H2:        c.Headers.H2,
			H3:        c.Headers.H3,
			PageTitle: c.PageTitle,
			SourceURL: c.SourceURL,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs one query over the chunk text and header fields and returns up to limit hits.
// Header and title matches are multiplied by opts.HeaderBoost when it is above 1.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	headerBoost := 1.0
	fuzzyEnabled := false
	fuzziness := 2
	runID := ""
	if opts != nil {
		if opts.HeaderBoost > 0 {
			headerBoost = opts.HeaderBoost
		}
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		runID = opts.RunID
	}
	if limit <= 0 {
		limit = 10
	}

	fields := append([]string{fieldText}, headerFields...)
	clauses := make([]blevequery.Query, 0, len(fields))
	for _, f := range fields {
		boost := 1.0
		if f != fieldText && headerBoost > 1 {
			boost = headerBoost
		}
		if fuzzyEnabled {
			clauses = append(clauses, buildFuzzyQuery(query, fuzziness, f, boost))
			continue
		}
		mq := bleve.NewMatchQuery(query)
		mq.SetField(f)
		mq.SetBoost(boost)
		clauses = append(clauses, mq)
	}

	var q blevequery.Query = bleve.NewDisjunctionQuery(clauses...)
	if runID != "" {
		tq := bleve.NewTermQuery(runID)
		tq.SetField(fieldRunID)
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query, restricted to field.
func buildFuzzyQuery(queryStr string, fuzziness int, field string, boost float64) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(field)
		mq.SetBoost(boost)
		return mq
	}

	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DeleteRun removes every chunk of runID from the index.
func (b *BleveIndex) DeleteRun(ctx context.Context, runID string) error {
	tq := bleve.NewTermQuery(runID)
	tq.SetField(fieldRunID)
	for {
		req := bleve.NewSearchRequestOptions(tq, deleteBatchSize, 0, false)
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("Bleve search failed: %w", err)
		}
		if len(results.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve delete failed: %w", err)
		}
	}
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of chunks in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
