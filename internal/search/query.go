package search

import (
	"regexp"
	"strings"
	"unicode"
)

var phrasePattern = regexp.MustCompile(`"([^"]+)"`)

// analyzedQuery is a search query split into the parts the re-ranker uses.
type analyzedQuery struct {
	// Text is what goes to the keyword index: the query without negated terms.
	Text    string
	Terms   []string
	Phrases []string
	Negated []string
}

// analyzeQuery extracts quoted phrases, -negated terms and plain terms.
// Boolean operators are dropped; everything is lowercased.
func analyzeQuery(q string) *analyzedQuery {
	a := &analyzedQuery{}
	for _, m := range phrasePattern.FindAllStringSubmatch(q, -1) {
		if p := strings.ToLower(strings.TrimSpace(m[1])); p != "" {
			a.Phrases = append(a.Phrases, p)
		}
	}

	var kept []string
	for _, word := range strings.Fields(phrasePattern.ReplaceAllString(q, " ")) {
		if strings.EqualFold(word, "AND") || strings.EqualFold(word, "OR") || strings.EqualFold(word, "NOT") {
			continue
		}
		if strings.HasPrefix(word, "-") {
			if n := normalizeTerm(word[1:]); n != "" {
				a.Negated = append(a.Negated, n)
			}
			continue
		}
		if n := normalizeTerm(word); n != "" {
			a.Terms = append(a.Terms, n)
			kept = append(kept, word)
		}
	}
	kept = append(kept, a.Phrases...)
	a.Text = strings.Join(kept, " ")
	return a
}

// normalizeTerm lowercases a token and trims edge punctuation other than - and _.
func normalizeTerm(token string) string {
	return strings.TrimFunc(strings.ToLower(token), func(r rune) bool {
		return unicode.IsPunct(r) && r != '-' && r != '_'
	})
}
