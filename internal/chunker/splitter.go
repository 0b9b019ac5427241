package chunker

import (
	"regexp"
	"strings"

	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/validator"
	"github.com/hyperjump/mdchunk/pkg/utils"
	"go.uber.org/zap"
)

var inlineCode = regexp.MustCompile("`([^`\n]+)`")

// draft is a chunk candidate before overlap and IDs are assigned.
type draft struct {
	headers models.Headers
	text    string
	tokens  int
}

// rewriteInlineCode turns `span` into <code>span</code> so single backticks
// are never confused with fence delimiters downstream.
func rewriteInlineCode(line string) string {
	return inlineCode.ReplaceAllString(line, validator.CodeOpen+"$1"+validator.CodeClose)
}

// draftBuilder accumulates lines of one section into drafts under the soft limit.
type draftBuilder struct {
	c       *MarkdownChunker
	headers models.Headers
	cur     string
	started bool
	drafts  []draft
}

func (b *draftBuilder) add(piece string) {
	if !b.started {
		b.cur, b.started = piece, true
		return
	}
	candidate := b.cur + "\n" + piece
	if b.c.tok.Count(candidate) <= b.c.cfg.SoftTokenLimit {
		b.cur = candidate
		return
	}
	b.close()
	b.cur, b.started = piece, true
}

func (b *draftBuilder) close() {
	text := trimBlankLines(b.cur)
	b.cur, b.started = "", false
	if text == "" {
		return
	}
	b.drafts = append(b.drafts, draft{headers: b.headers, text: text, tokens: b.c.tok.Count(text)})
}

// splitSection cuts a section into drafts at line boundaries. Fenced code
// blocks are kept whole unless they exceed max_tokens on their own, in which
// case they are re-fenced in pieces.
func (c *MarkdownChunker) splitSection(s Section) []draft {
	b := &draftBuilder{c: c, headers: s.Headers}

	var (
		f     fence
		block []string
	)
	for _, line := range strings.Split(s.Content, "\n") {
		if f.open {
			block = append(block, line)
			if f.observe(line) {
				c.addBlock(b, block)
				block = nil
			}
			continue
		}
		if f.observe(line) {
			block = []string{line}
			continue
		}
		b.add(rewriteInlineCode(line))
	}
	// An unclosed block has no closing delimiter to re-fence with.
	for _, line := range block {
		b.add(line)
	}
	b.close()

	return b.drafts
}

func (c *MarkdownChunker) addBlock(b *draftBuilder, block []string) {
	text := strings.Join(block, "\n")
	if c.tok.Count(text) <= c.cfg.MaxTokens {
		b.add(text)
		return
	}
	if c.logger != nil {
		c.logger.Debug("splitting oversized code block",
			zap.String("fence", block[0]),
			zap.Int("lines", len(block)))
	}
	for _, piece := range c.splitCodeBlock(block) {
		b.add(piece)
	}
}

// splitCodeBlock breaks a fenced block into sub-blocks that each fit the soft
// limit, cutting at blank lines first and at line boundaries when a single
// paragraph is too large. Every sub-block repeats the opening fence line and
// the closing delimiter.
func (c *MarkdownChunker) splitCodeBlock(block []string) []string {
	open, closing := block[0], block[len(block)-1]
	body := block[1 : len(block)-1]
	wrap := func(lines []string) string {
		parts := make([]string, 0, len(lines)+2)
		parts = append(parts, open)
		parts = append(parts, lines...)
		parts = append(parts, closing)
		return strings.Join(parts, "\n")
	}
	fits := func(lines []string) bool {
		return c.tok.Count(wrap(lines)) <= c.cfg.SoftTokenLimit
	}

	var (
		out []string
		cur []string
	)
	emit := func() {
		if trimmed := trimBlankLineSlice(cur); len(trimmed) > 0 {
			out = append(out, wrap(trimmed))
		}
		cur = nil
	}

	for _, para := range paragraphs(body) {
		if len(cur) > 0 && fits(append(append([]string{}, cur...), para...)) {
			cur = append(cur, para...)
			continue
		}
		emit()
		if fits(para) {
			cur = append(cur, para...)
			continue
		}
		for _, line := range para {
			if len(cur) > 0 && !fits(append(append([]string{}, cur...), line)) {
				emit()
			}
			cur = append(cur, line)
		}
	}
	emit()

	return out
}

// paragraphs groups lines into runs separated by blank lines. Each run keeps
// its trailing blank lines so the body can be rebuilt exactly.
func paragraphs(lines []string) [][]string {
	var (
		out [][]string
		cur []string
	)
	for i, line := range lines {
		cur = append(cur, line)
		endOfRun := utils.IsBlank(line) && (i+1 == len(lines) || !utils.IsBlank(lines[i+1]))
		if endOfRun {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func trimBlankLineSlice(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && utils.IsBlank(lines[start]) {
		start++
	}
	for end > start && utils.IsBlank(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

// trimBlankLines removes leading and trailing whitespace-only lines while
// keeping the indentation of the first and last content lines.
func trimBlankLines(text string) string {
	return strings.Join(trimBlankLineSlice(strings.Split(text, "\n")), "\n")
}
