package search

import (
	"sort"
	"strings"

	"github.com/hyperjump/mdchunk/internal/models"
)

// Score multipliers applied on top of the keyword index score.
const (
	phraseMultiplier   = 1.5
	allTermsMultiplier = 1.2
	headerMultiplier   = 1.3
)

// hit is a hydrated keyword result.
type hit struct {
	chunk *models.Chunk
	score float64
}

// rerank drops hits containing a negated term, boosts phrase, all-terms and
// header matches, and sorts by score descending. Ties keep index order.
func rerank(q *analyzedQuery, hits []hit) []hit {
	out := hits[:0]
	for _, h := range hits {
		text := strings.ToLower(h.chunk.Text)
		if containsAny(text, q.Negated) {
			continue
		}
		for _, p := range q.Phrases {
			if strings.Contains(text, p) {
				h.score *= phraseMultiplier
				break
			}
		}
		if len(q.Terms) > 1 && containsAll(text, q.Terms) {
			h.score *= allTermsMultiplier
		}
		headers := strings.ToLower(strings.Join([]string{
			h.chunk.Headers.H1, h.chunk.Headers.H2, h.chunk.Headers.H3, h.chunk.PageTitle,
		}, " "))
		if containsAny(headers, q.Terms) || containsAny(headers, q.Phrases) {
			h.score *= headerMultiplier
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
