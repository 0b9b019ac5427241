package tokenizer

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes encodings of an underlying tokenizer in an LRU keyed by text.
// Re-chunking an unchanged page hits the cache for every line and draft.
type Cached struct {
	inner Tokenizer
	cache *lru.Cache[string, []int]
}

// NewCached wraps inner with a cache holding up to capacity encodings.
func NewCached(inner Tokenizer, capacity int) (*Cached, error) {
	c, err := lru.New[string, []int](capacity)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

// Encode returns the cached encoding of text, computing it on a miss.
// Callers must not modify the returned slice.
func (c *Cached) Encode(text string) []int {
	if tokens, ok := c.cache.Get(text); ok {
		return tokens
	}
	tokens := c.inner.Encode(text)
	c.cache.Add(text, tokens)
	return tokens
}

// Decode delegates to the underlying tokenizer.
func (c *Cached) Decode(tokens []int) string {
	return c.inner.Decode(tokens)
}

// Tail uses the underlying tokenizer's own tail cut when it has one.
func (c *Cached) Tail(text string, n int) (string, int) {
	if tt, ok := c.inner.(tailer); ok {
		return tt.Tail(text, n)
	}
	if n <= 0 {
		return "", 0
	}
	tokens := c.Encode(text)
	if n > len(tokens) {
		n = len(tokens)
	}
	return c.inner.Decode(tokens[len(tokens)-n:]), n
}

// Count returns the length of the cached encoding.
func (c *Cached) Count(text string) int {
	return len(c.Encode(text))
}

// Len returns the number of cached encodings.
func (c *Cached) Len() int {
	return c.cache.Len()
}
