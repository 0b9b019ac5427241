package chunker

import "regexp"

// Rule is one entry of an ordered line-rewriting table.
type Rule interface {
	// Matches reports whether the rule applies to line.
	Matches(line string) bool
	// Apply returns the rewritten line, or keep=false to drop the line.
	Apply(line string) (out string, keep bool)
}

type dropRule struct {
	name string
	re   *regexp.Regexp
}

func (r dropRule) Matches(line string) bool { return r.re.MatchString(line) }
func (r dropRule) Apply(string) (string, bool) { return "", false }
func (r dropRule) String() string { return r.name }
func drop(name, pattern string) dropRule { return dropRule{name: name, re: regexp.MustCompile(pattern)} }

type replaceRule struct {
	name string
	re   *regexp.Regexp
	repl string
}

func (r replaceRule) Matches(line string) bool { return r.re.MatchString(line) }
func (r replaceRule) Apply(line string) (string, bool) {
	return r.re.ReplaceAllString(line, r.repl), true
}
func (r replaceRule) String() string { return r.name }
func replace(name, pattern, repl string) replaceRule {
	return replaceRule{name: name, re: regexp.MustCompile(pattern), repl: repl}
}

type blankRule struct {
	name string
	re   *regexp.Regexp
}

func (r blankRule) Matches(line string) bool { return r.re.MatchString(line) }
func (r blankRule) Apply(string) (string, bool) { return "", true }
func (r blankRule) String() string { return r.name }
func blank(name, pattern string) blankRule { return blankRule{name: name, re: regexp.MustCompile(pattern)} }

// applyRules runs line through rules in order. It stops at the first rule that drops the line.
func applyRules(rules []Rule, line string) (string, bool) {
	for _, r := range rules {
		if !r.Matches(line) {
			continue
		}
		out, keep := r.Apply(line)
		if !keep {
			return "", false
		}
		line = out
	}
	return line, true
}

// boilerplateRules drop whole lines of site chrome that crawlers capture with the page body.
// A bare "---" is kept because it is also a setext H2 underline.
var boilerplateRules = []Rule{
	drop("home-link", `(?i)^\s*\[(home|homepage|home page|back to home|go to homepage)\]\([^)]*\)\s*$`),
	drop("language-picker", `(?i)^\s*(select|choose|change)\s+(a\s+)?language\b.*$`),
	drop("language-option", `(?i)^\s*\[?(english|español|français|deutsch|italiano|português|日本語|简体中文|繁體中文|한국어|русский)\]?(\([^)]*\))?\s*[▾▼]?\s*$`),
	drop("search-box", `(?i)^\s*(search|search\.\.\.|search docs|search documentation|search the docs)\s*((⌘|ctrl\s*\+?)\s*k)?\s*$`),
	drop("search-shortcut", `(?i)^\s*(⌘|ctrl\s*\+?)\s*k\s*$`),
	drop("navigation", `(?i)^\s*(main\s+|site\s+)?navigation\s*$`),
	drop("nav-link", `(?i)^\s*\[(skip to (main )?content|previous|next|prev|edit this page|edit on github|← [^\]]*|[^\]]* →)\]\([^)]*\)\s*$`),
	drop("on-this-page", `(?i)^\s*(on this page|table of contents|in this article)\s*:?\s*$`),
	drop("separator", `^\s*((\*\s*){3,}|(_\s*){3,}|-\s+-\s+-[\s-]*)$`),
}

// headerRules turn a raw header line into plain heading text.
// Shebang-looking text is blanked twice: before and after the hashes are removed.
var headerRules = []Rule{
	replace("zero-width", "[\u200b\u200c\u200d\u2060\ufeff]", ""),
	blank("shebang", `^\s*(#!|!/)`),
	replace("atx-open", `^\s*#+\s*`, ""),
	replace("atx-close", `\s+#+\s*$`, ""),
	replace("image", `!\[[^\]]*\]\([^)]*\)`, ""),
	replace("link", `\[([^\]]*)\]\([^)]*\)`, "$1"),
	blank("shebang", `^\s*(#!|!/)`),
}
