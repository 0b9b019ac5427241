package validator

import (
	"fmt"
	"strings"
)

// PreservationRatio returns the share of headings at level that survived into
// at least one chunk header. ok is false when no heading was seen at level.
func (r *Report) PreservationRatio(level int) (ratio float64, ok bool) {
	kept, total := r.preserved(level)
	if total == 0 {
		return 0, false
	}
	return float64(kept) / float64(total), true
}

func (r *Report) preserved(level int) (kept, total int) {
	for h := range r.TotalHeadings[level] {
		if r.HeadingsPreserved.Has(level, h) {
			kept++
		}
	}
	return kept, r.TotalHeadings.Len(level)
}

// Summary renders the report for the end-of-run log.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chunking summary\n")
	fmt.Fprintf(&b, "  pages:            %d\n", len(r.pages))
	fmt.Fprintf(&b, "  chunks:           %d\n", r.TotalChunks)
	delta := r.TotalTokens - r.OriginalTokens
	deltaPct := 0.0
	if r.OriginalTokens > 0 {
		deltaPct = float64(delta) / float64(r.OriginalTokens) * 100
	}
	fmt.Fprintf(&b, "  tokens:           %d (original %d, delta %+d / %+.2f%%)\n",
		r.TotalTokens, r.OriginalTokens, delta, deltaPct)
	d := r.Distribution
	fmt.Fprintf(&b, "  chunk tokens:     min %d | q1 %.1f | median %.1f | q3 %.1f | max %d | mean %.1f\n",
		d.Min, d.Q1, d.Median, d.Q3, d.Max, d.Mean)
	for level := 1; level <= 3; level++ {
		kept, total := r.preserved(level)
		if total == 0 {
			fmt.Fprintf(&b, "  h%d preserved:     n/a\n", level)
			continue
		}
		fmt.Fprintf(&b, "  h%d preserved:     %d/%d (%.1f%%)\n",
			level, kept, total, float64(kept)/float64(total)*100)
	}
	if r.ContentMissing {
		fmt.Fprintf(&b, "  content:          MISSING %d chars (%.2f%%)\n", r.CharDelta, r.CharDeltaPercent)
	} else {
		fmt.Fprintf(&b, "  content:          complete\n")
	}
	fmt.Fprintf(&b, "  too small:        %d\n", r.TooSmall)
	fmt.Fprintf(&b, "  too large:        %d\n", r.TooLarge)
	fmt.Fprintf(&b, "  duplicates:       %d\n", r.DuplicatesRemoved)
	fmt.Fprintf(&b, "  validation errors: %d\n", len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "    - %s\n", e)
	}
	return b.String()
}
