// Package validator accumulates per-run chunking statistics and audits the
// final chunk list for content loss, duplicates, and size violations.
//
// A Report is owned by one goroutine at a time. Concurrent page workers each
// fill their own Report and the results are combined with Merge.
package validator

import (
	"fmt"

	"github.com/hyperjump/mdchunk/pkg/utils"
)

// Report is the aggregate of one chunking run.
type Report struct {
	TotalChunks       int         `json:"total_chunks"`
	TotalTokens       int         `json:"total_tokens"`
	OriginalTokens    int         `json:"original_tokens"`
	TotalHeadings     HeadingSets `json:"total_headings"`
	HeadingsPreserved HeadingSets `json:"headings_preserved"`
	Errors            []string    `json:"validation_errors"`
	TooSmall          int         `json:"too_small"`
	TooLarge          int         `json:"too_large"`
	DuplicatesRemoved int         `json:"duplicates_removed"`

	ContentMissing     bool    `json:"content_missing"`
	OriginalChars      int     `json:"original_chars"`
	ReconstructedChars int     `json:"reconstructed_chars"`
	CharDelta          int     `json:"char_delta"`
	CharDeltaPercent   float64 `json:"char_delta_percent"`

	Distribution utils.Distribution `json:"distribution"`

	pages []string
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{
		TotalHeadings:     NewHeadingSets(),
		HeadingsPreserved: NewHeadingSets(),
	}
}

// AddError records a structural warning.
func (r *Report) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// RecordHeading records a heading seen while identifying sections.
func (r *Report) RecordHeading(level int, text string) {
	r.TotalHeadings.Add(level, text)
}

// RecordPage records the boilerplate-stripped text of a page and its token count.
// Pages must be recorded in emission order.
func (r *Report) RecordPage(stripped string, tokens int) {
	r.pages = append(r.pages, stripped)
	r.OriginalTokens += tokens
}

// Pages returns the number of pages recorded.
func (r *Report) Pages() int {
	return len(r.pages)
}

// Merge folds other into r: sums for counts, unions for heading sets, and
// other's pages and errors appended after r's.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.TotalChunks += other.TotalChunks
	r.TotalTokens += other.TotalTokens
	r.OriginalTokens += other.OriginalTokens
	r.TotalHeadings.Union(other.TotalHeadings)
	r.HeadingsPreserved.Union(other.HeadingsPreserved)
	r.Errors = append(r.Errors, other.Errors...)
	r.TooSmall += other.TooSmall
	r.TooLarge += other.TooLarge
	r.DuplicatesRemoved += other.DuplicatesRemoved
	r.pages = append(r.pages, other.pages...)
}
