package chunker

import (
	"strings"
	"testing"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionHeaders(sections []Section) []models.Headers {
	out := make([]models.Headers, len(sections))
	for i, s := range sections {
		out[i] = s.Headers
	}
	return out
}

func TestIdentifySections_HeaderInheritance(t *testing.T) {
	text := "# A\nintro\n## B\nbody b\n### C\nbody c\n## D\nbody d\n# E\nbody e"
	r := validator.NewReport()
	sections := IdentifySections(text, "test", r)

	assert.Equal(t, []models.Headers{
		{H1: "A"},
		{H1: "A", H2: "B"},
		{H1: "A", H2: "B", H3: "C"},
		{H1: "A", H2: "D"},
		{H1: "E"},
	}, sectionHeaders(sections))
	assert.Equal(t, "# A\nintro", sections[0].Content)
	assert.Equal(t, 2, r.TotalHeadings.Len(1))
	assert.Equal(t, 2, r.TotalHeadings.Len(2))
	assert.Equal(t, 1, r.TotalHeadings.Len(3))
	assert.Empty(t, r.Errors)
}

func TestIdentifySections_H3KeepsH2(t *testing.T) {
	sections := IdentifySections("# A\n### C\ntext", "test", validator.NewReport())
	require.Len(t, sections, 1)
	assert.Equal(t, models.Headers{H1: "A", H3: "C"}, sections[0].Headers)
}

func TestIdentifySections_HeaderOnlyCarriesForward(t *testing.T) {
	r := validator.NewReport()
	sections := IdentifySections("# A\n\n## B\ntext\n# C\n### D\n\nmore", "test", r)

	assert.Equal(t, []models.Headers{
		{H1: "A", H2: "B"},
		{H1: "C", H3: "D"},
	}, sectionHeaders(sections))
	assert.Equal(t, "# A\n\n## B\ntext", sections[0].Content)
	assert.Equal(t, "# C\n### D\n\nmore", sections[1].Content)
	assert.True(t, r.TotalHeadings.Has(1, "A"))
	assert.True(t, r.TotalHeadings.Has(1, "C"))
}

func TestIdentifySections_TrailingHeaders(t *testing.T) {
	sections := IdentifySections("# A\ntext\n## B\n\n### C", "test", validator.NewReport())
	require.Len(t, sections, 1)
	assert.Equal(t, models.Headers{H1: "A"}, sections[0].Headers)
	assert.Equal(t, "# A\ntext\n## B\n\n### C", sections[0].Content)

	only := IdentifySections("# Lonely\n## Heading", "test", validator.NewReport())
	require.Len(t, only, 1)
	assert.Equal(t, models.Headers{H1: "Lonely", H2: "Heading"}, only[0].Headers)
	assert.Equal(t, "# Lonely\n## Heading", only[0].Content)
}

func TestIdentifySections_Setext(t *testing.T) {
	sections := IdentifySections("Title\n=====\ntext\nSub\n---\nmore", "test", validator.NewReport())
	assert.Equal(t, []models.Headers{
		{H1: "Title"},
		{H1: "Title", H2: "Sub"},
	}, sectionHeaders(sections))
	assert.Equal(t, "Sub\n---\nmore", sections[1].Content)
}

func TestIdentifySections_SetextWinsOverATX(t *testing.T) {
	sections := IdentifySections("# A\n===\npara", "test", validator.NewReport())
	require.Len(t, sections, 1)
	assert.Equal(t, models.Headers{H1: "A"}, sections[0].Headers)
	assert.Equal(t, "# A\n===\npara", sections[0].Content)
}

func TestIdentifySections_CodeFenceImmunity(t *testing.T) {
	text := "# A\n```\n# not header\n## nope\nTitle\n===\n```\nafter"
	r := validator.NewReport()
	sections := IdentifySections(text, "test", r)

	require.Len(t, sections, 1)
	assert.Equal(t, models.Headers{H1: "A"}, sections[0].Headers)
	assert.Equal(t, text, sections[0].Content)
	assert.False(t, r.TotalHeadings.Has(1, "not header"))
	assert.Equal(t, 0, r.TotalHeadings.Len(2))
}

func TestIdentifySections_FenceClosesOnSameDelimiter(t *testing.T) {
	text := "~~~\n```\n# inside\n~~~\n# Real\nbody"
	sections := IdentifySections(text, "test", validator.NewReport())

	require.Len(t, sections, 2)
	assert.Equal(t, models.Headers{}, sections[0].Headers)
	assert.Equal(t, models.Headers{H1: "Real"}, sections[1].Headers)
}

func TestIdentifySections_UnclosedFence(t *testing.T) {
	r := validator.NewReport()
	sections := IdentifySections("# A\n```go\n# B\ncode", "https://example.com/a", r)

	require.Len(t, sections, 1)
	assert.Equal(t, "# A\n```go\n# B\ncode", sections[0].Content)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "unclosed code fence")
	assert.Contains(t, r.Errors[0], "https://example.com/a")
}

func TestIdentifySections_NotHeaders(t *testing.T) {
	text := "# A\n#### Deep\ntext\n#!/bin/bash\necho hi\n#hashtag"
	r := validator.NewReport()
	sections := IdentifySections(text, "test", r)

	require.Len(t, sections, 1)
	assert.Equal(t, models.Headers{H1: "A"}, sections[0].Headers)
	assert.Equal(t, 1, r.TotalHeadings.Len(1))
}

func TestIdentifySections_EmptyAndBlank(t *testing.T) {
	assert.Empty(t, IdentifySections("", "test", validator.NewReport()))
	assert.Empty(t, IdentifySections("\n\n", "test", validator.NewReport()))
}

func TestIdentifySections_Reconstructs(t *testing.T) {
	text := "preamble\n\n# A\n\npara\n\n## B\nmore\n```\n# code\n```\n\nSetext\n------\ntail"
	sections := IdentifySections(text, "test", validator.NewReport())

	var rebuilt []string
	for _, s := range sections {
		rebuilt = append(rebuilt, s.Content)
	}
	assert.Equal(t, text, strings.Join(rebuilt, "\n"))
}
