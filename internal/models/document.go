// Package models defines core data structures for crawled documents, chunks, and search results.
package models

import "strings"

// Document is one crawl result: a base URL, the crawl timestamp, and its pages in crawl order.
type Document struct {
	BaseURL   string `json:"base_url"`
	Timestamp string `json:"timestamp"`
	Pages     []Page `json:"data"`
}

// Page is a single crawled page: raw markdown plus metadata reported by the crawler.
type Page struct {
	Markdown string       `json:"markdown"`
	Metadata PageMetadata `json:"metadata"`
}

// PageMetadata holds the crawler metadata for a page. Unknown keys are kept in Extra.
type PageMetadata struct {
	SourceURL   string                 `json:"sourceURL"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Extra       map[string]interface{} `json:"-"`
}

// Headers is the H1/H2/H3 context a section or chunk was found under.
type Headers struct {
	H1 string `json:"h1"`
	H2 string `json:"h2"`
	H3 string `json:"h3"`
}

// Combine merges two header contexts level by level, preferring h's non-empty
// value and falling back to later's.
func (h Headers) Combine(later Headers) Headers {
	return Headers{
		H1: firstNonEmpty(h.H1, later.H1),
		H2: firstNonEmpty(h.H2, later.H2),
		H3: firstNonEmpty(h.H3, later.H3),
	}
}

// Level returns the header text at level 1..3, or "" for any other level.
func (h Headers) Level(level int) string {
	switch level {
	case 1:
		return h.H1
	case 2:
		return h.H2
	case 3:
		return h.H3
	}
	return ""
}

// String renders the non-empty levels joined by " > ".
func (h Headers) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{h.H1, h.H2, h.H3} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " > ")
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
