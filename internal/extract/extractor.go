// Package extract loads crawl documents from disk or raw bytes.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/mdchunk/internal/models"
)

// ErrInvalidDocument is returned when input parses but lacks required fields.
var ErrInvalidDocument = errors.New("invalid document")

// Extractor turns input files into crawl documents.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its document.
// Crawl JSON (.json) is decoded and validated. Markdown and plain text files
// (.md, .markdown, .txt) become a single page whose source URL is the file path.
// Returns an error if the file cannot be read or the document is invalid.
func (e *Extractor) Extract(path string) (*models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return e.ExtractBytes(content, ext, "")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return e.ExtractBytes(content, ext, abs)
}

// ExtractBytes builds a document from content based on the given extension.
// ext should include the leading dot (e.g. ".json"). source is used as the
// page source URL for markdown input.
func (e *Extractor) ExtractBytes(content []byte, ext, source string) (*models.Document, error) {
	switch ext {
	case ".json":
		return decodeDocument(content)
	case ".md", ".markdown", ".txt", "":
		return markdownDocument(extractPlain(content), source), nil
	default:
		return nil, fmt.Errorf("unsupported input extension %q", ext)
	}
}

type rawPage struct {
	Markdown *string              `json:"markdown"`
	Metadata *models.PageMetadata `json:"metadata"`
}

type rawDocument struct {
	BaseURL   string    `json:"base_url"`
	Timestamp string    `json:"timestamp"`
	Pages     []rawPage `json:"data"`
}

func decodeDocument(content []byte) (*models.Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if raw.Pages == nil {
		return nil, fmt.Errorf("%w: missing data array", ErrInvalidDocument)
	}

	doc := &models.Document{
		BaseURL:   raw.BaseURL,
		Timestamp: raw.Timestamp,
		Pages:     make([]models.Page, 0, len(raw.Pages)),
	}
	for i, p := range raw.Pages {
		if p.Markdown == nil {
			return nil, fmt.Errorf("%w: page %d has no markdown", ErrInvalidDocument, i)
		}
		if p.Metadata == nil || p.Metadata.SourceURL == "" {
			return nil, fmt.Errorf("%w: page %d has no metadata.sourceURL", ErrInvalidDocument, i)
		}
		doc.Pages = append(doc.Pages, models.Page{
			Markdown: extractPlain([]byte(*p.Markdown)),
			Metadata: *p.Metadata,
		})
	}
	return doc, nil
}

func markdownDocument(text, source string) *models.Document {
	title := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return &models.Document{
		BaseURL:   source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Pages: []models.Page{{
			Markdown: text,
			Metadata: models.PageMetadata{SourceURL: source, Title: title},
		}},
	}
}
