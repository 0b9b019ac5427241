package validator

import (
	"encoding/json"
	"sort"
	"strconv"
)

// HeadingSets holds distinct heading texts per level (1..3).
// Repeated identical headings, on any page, count once.
type HeadingSets map[int]map[string]struct{}

// NewHeadingSets returns empty sets for levels 1..3.
func NewHeadingSets() HeadingSets {
	return HeadingSets{1: {}, 2: {}, 3: {}}
}

// Add inserts text at level. Empty text and unknown levels are ignored.
func (h HeadingSets) Add(level int, text string) {
	if text == "" || level < 1 || level > 3 {
		return
	}
	set, ok := h[level]
	if !ok {
		set = make(map[string]struct{})
		h[level] = set
	}
	set[text] = struct{}{}
}

// Has reports whether text was recorded at level.
func (h HeadingSets) Has(level int, text string) bool {
	_, ok := h[level][text]
	return ok
}

// Len returns the number of distinct headings at level.
func (h HeadingSets) Len(level int) int {
	return len(h[level])
}

// Sorted returns the headings at level in lexical order.
func (h HeadingSets) Sorted(level int) []string {
	out := make([]string, 0, len(h[level]))
	for s := range h[level] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Union adds every heading of other into h.
func (h HeadingSets) Union(other HeadingSets) {
	for level, set := range other {
		for s := range set {
			h.Add(level, s)
		}
	}
}

// MarshalJSON renders the sets as {"h1": [...], "h2": [...], "h3": [...]}.
func (h HeadingSets) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, 3)
	for level := 1; level <= 3; level++ {
		out["h"+strconv.Itoa(level)] = h.Sorted(level)
	}
	return json.Marshal(out)
}
