// Package cli provides output helpers for the mdchunk command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/hyperjump/mdchunk/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per item.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const snippetLen = 200

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n", r.Rank, r.Score, r.Chunk.ChunkID,
				r.Chunk.Data.Headers.String(), TruncateWords(oneLine(r.Chunk.Data.Text), 12))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d chunks in %dms\n", response.Total, response.QueryTime)
	if response.AutoFuzzy {
		fmt.Fprintln(w, "(no exact matches; showing fuzzy matches)")
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	c := result.Chunk
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | Tokens: %d\n", result.Rank, result.Score, c.Metadata.TokenCount)
	fmt.Fprintf(w, "ID: %s\n", c.ChunkID)
	if h := c.Data.Headers.String(); h != "" {
		fmt.Fprintf(w, "Headers: %s\n", h)
	}
	if c.Metadata.SourceURL != "" {
		fmt.Fprintf(w, "Source: %s\n", c.Metadata.SourceURL)
	}
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(c.Data.Text, snippetLen))
	fmt.Fprintln(w)
}

// WriteReport writes the end-of-run report. Text output is the report summary.
func WriteReport(w io.Writer, report *validator.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	_, err := io.WriteString(w, report.Summary())
	return err
}

// WriteRuns lists stored runs.
func WriteRuns(w io.Writer, runs []*models.Run, format OutputFormat) error {
	if format == OutputJSON {
		if runs == nil {
			runs = []*models.Run{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d pages\t%d chunks\t%d tokens\t%d errors\t%s\n",
			r.ID, r.Source, r.Pages, r.Chunks, r.TotalTokens, r.Errors, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
