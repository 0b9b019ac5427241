package tokenizer

import (
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// wordPattern splits text into runs of leading whitespace plus one non-space run.
// Trailing whitespace forms its own token, so concatenating all matches yields the input.
var wordPattern = regexp.MustCompile(`\s*\S+|\s+`)

// DefaultWordVocabulary is the number of distinct pieces a Word keeps IDs for.
const DefaultWordVocabulary = 1 << 16

// Word is a whitespace tokenizer with exact round trips: each token is a word
// together with the whitespace before it. IDs are assigned on first sight and
// held in a bounded LRU vocabulary, so an ID decodes only while its piece is
// still among the most recently used. Tail slices text directly and never
// consults the vocabulary.
type Word struct {
	mu     sync.Mutex
	next   int
	ids    map[string]int
	pieces *lru.Cache[int, string]
}

// NewWord returns a word tokenizer with the default vocabulary size.
func NewWord() *Word {
	return NewWordSize(DefaultWordVocabulary)
}

// NewWordSize returns a word tokenizer remembering at most size pieces.
func NewWordSize(size int) *Word {
	if size <= 0 {
		size = DefaultWordVocabulary
	}
	w := &Word{ids: make(map[string]int)}
	// The callback runs inside Add, which is only called with w.mu held.
	w.pieces, _ = lru.NewWithEvict[int, string](size, func(id int, piece string) {
		if w.ids[piece] == id {
			delete(w.ids, piece)
		}
	})
	return w
}

// Encode returns one ID per whitespace-prefixed word.
func (w *Word) Encode(text string) []int {
	pieces := wordPattern.FindAllString(text, -1)
	if len(pieces) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(pieces))
	for i, p := range pieces {
		id, ok := w.ids[p]
		if ok {
			w.pieces.Get(id)
		} else {
			id = w.next
			w.next++
			w.ids[p] = id
			w.pieces.Add(id, p)
		}
		out[i] = id
	}
	return out
}

// Decode concatenates the pieces for tokens. Unknown or evicted IDs are skipped.
func (w *Word) Decode(tokens []int) string {
	var b strings.Builder
	for _, id := range tokens {
		if p, ok := w.pieces.Peek(id); ok {
			b.WriteString(p)
		}
	}
	return b.String()
}

// Count returns the number of tokens in text without touching the vocabulary.
func (w *Word) Count(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// Tail returns the text of the last n tokens of text without touching the vocabulary.
func (w *Word) Tail(text string, n int) (string, int) {
	if n <= 0 {
		return "", 0
	}
	spans := wordPattern.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return "", 0
	}
	if n > len(spans) {
		n = len(spans)
	}
	return text[spans[len(spans)-n][0]:], n
}

// Len returns the number of pieces currently holding an ID.
func (w *Word) Len() int {
	return w.pieces.Len()
}
