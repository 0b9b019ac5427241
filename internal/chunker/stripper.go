package chunker

import (
	"strings"

	"github.com/hyperjump/mdchunk/pkg/utils"
)

// Strip removes boilerplate lines from raw page markdown and collapses runs
// of blank lines into a single blank line. Strip(Strip(x)) == Strip(x).
func Strip(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		line, keep := applyRules(boilerplateRules, line)
		if !keep {
			continue
		}
		if utils.IsBlank(line) {
			blankRun++
			if blankRun > 1 {
				continue
			}
			line = ""
		} else {
			blankRun = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// CleanHeader reduces a header line to its visible text. An empty result means
// the line should not be treated as a header.
func CleanHeader(line string) string {
	text, _ := applyRules(headerRules, line)
	return strings.TrimSpace(text)
}
