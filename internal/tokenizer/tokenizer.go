// Package tokenizer measures and slices text in model tokens.
//
// The chunker only needs three things from a tokenizer: a token count, the
// token sequence of a text, and the text of a token subsequence. Decode must
// be the inverse of Encode so that the tail of a chunk can be cut at an exact
// token boundary.
package tokenizer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// WordEncoding selects the deterministic whitespace tokenizer.
const WordEncoding = "word"

// Tokenizer encodes text to token IDs and back. Implementations must be safe for concurrent use.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// tailer is implemented by tokenizers that can cut a token tail without a round trip.
type tailer interface {
	Tail(text string, n int) (string, int)
}

// loadTiktoken is swapped in tests to simulate missing BPE ranks.
var loadTiktoken = func(name string) (Tokenizer, error) {
	return NewTiktoken(name)
}

type options struct {
	logger *zap.Logger
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger used to report a tokenizer fallback.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns the tokenizer named by encoding ("word", a tiktoken encoding, or a model name),
// wrapped in an LRU cache of cacheSize encodings when cacheSize > 0. When the BPE ranks
// cannot be loaded, New logs a warning and falls back to the word tokenizer.
func New(encoding string, cacheSize int, opts ...Option) (Tokenizer, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	var tok Tokenizer
	if strings.EqualFold(strings.TrimSpace(encoding), WordEncoding) {
		tok = NewWord()
	} else {
		tk, err := loadTiktoken(encoding)
		if err != nil {
			o.logger.Warn("BPE ranks unavailable, falling back to word tokenizer",
				zap.String("encoding", encoding),
				zap.Error(err))
			tk = NewWord()
		}
		tok = tk
	}
	if cacheSize <= 0 {
		return tok, nil
	}
	cached, err := NewCached(tok, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create token cache: %w", err)
	}
	return cached, nil
}

// Tail returns the text of the last n tokens of text and the number of tokens actually taken.
func Tail(t Tokenizer, text string, n int) (string, int) {
	if n <= 0 {
		return "", 0
	}
	if tt, ok := t.(tailer); ok {
		return tt.Tail(text, n)
	}
	tokens := t.Encode(text)
	if n > len(tokens) {
		n = len(tokens)
	}
	return t.Decode(tokens[len(tokens)-n:]), n
}
