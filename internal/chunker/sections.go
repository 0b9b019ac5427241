package chunker

import (
	"regexp"
	"strings"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/hyperjump/mdchunk/pkg/utils"
)

var (
	atxHeader     = regexp.MustCompile(`^(#{1,3})\s+\S`)
	setextH1Under = regexp.MustCompile(`^ {0,3}=+\s*$`)
	setextH2Under = regexp.MustCompile(`^ {0,3}-+\s*$`)
)

// Section is a contiguous run of page lines sharing one header context.
// Header lines stay in Content so sections concatenate back to the page.
type Section struct {
	Headers models.Headers
	Content string
}

// IdentifySections walks stripped page text line by line and cuts a new
// section at every H1, H2 or H3 outside a fenced code block. A section is
// only emitted once it holds a non-blank line besides its header lines;
// header lines seen before that are carried into the next section. Every
// header found is recorded in r. An unclosed fence at end of page is recorded
// as an error and its lines stay in the final section.
func IdentifySections(text, source string, r *validator.Report) []Section {
	lines := strings.Split(text, "\n")

	var (
		sections   []Section
		headers    models.Headers
		body       []string
		hasContent bool
		f          fence
	)

	flush := func() {
		sections = append(sections, Section{Headers: headers, Content: strings.Join(body, "\n")})
		body, hasContent = nil, false
	}

	add := func(line string) {
		body = append(body, line)
		if !utils.IsBlank(line) {
			hasContent = true
		}
	}

	begin := func(level int, title string, header ...string) {
		if hasContent {
			flush()
		}
		switch level {
		case 1:
			headers = models.Headers{H1: title}
		case 2:
			headers = models.Headers{H1: headers.H1, H2: title}
		case 3:
			headers.H3 = title
		}
		r.RecordHeading(level, title)
		body = append(body, header...)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if f.open {
			add(line)
			f.observe(line)
			continue
		}
		if f.observe(line) {
			add(line)
			continue
		}

		if i+1 < len(lines) && !utils.IsBlank(line) {
			next := lines[i+1]
			level := 0
			switch {
			case setextH1Under.MatchString(next):
				level = 1
			case setextH2Under.MatchString(next):
				level = 2
			}
			if level > 0 {
				if title := CleanHeader(line); title != "" {
					begin(level, title, line, next)
					i++
					continue
				}
			}
		}

		if m := atxHeader.FindStringSubmatch(line); m != nil {
			if title := CleanHeader(line); title != "" {
				begin(len(m[1]), title, line)
				continue
			}
		}

		add(line)
	}

	if f.open {
		r.AddError("unclosed code fence %q in %s", f.opener, source)
	}
	switch {
	case hasContent:
		flush()
	case utils.IsBlank(strings.Join(body, "\n")):
	case len(sections) > 0:
		// Trailing headers with nothing under them stay with the last section.
		last := &sections[len(sections)-1]
		last.Content += "\n" + strings.Join(body, "\n")
	default:
		flush()
	}

	return sections
}
