package chunker

import "strings"

var fenceDelimiters = []string{"```", "~~~"}

// fenceMarker returns the fence delimiter a line opens or closes with.
func fenceMarker(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, d := range fenceDelimiters {
		if strings.HasPrefix(trimmed, d) {
			return d, true
		}
	}
	return "", false
}

// fence tracks whether the lines seen so far leave a code block open.
// A block only closes on the delimiter that opened it.
type fence struct {
	open   bool
	delim  string
	opener string
}

// observe feeds one line and reports whether it opened or closed a block.
func (f *fence) observe(line string) bool {
	marker, ok := fenceMarker(line)
	if !ok {
		return false
	}
	if !f.open {
		f.open, f.delim, f.opener = true, marker, line
		return true
	}
	if marker == f.delim {
		f.open, f.delim, f.opener = false, "", ""
		return true
	}
	return false
}
