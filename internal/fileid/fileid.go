// Package fileid derives stable run IDs from input file paths, so that a
// watched file chunked again after an edit replaces its previous run.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "path:"

// RunID returns the run ID for a file path. Relative paths are resolved
// against the working directory first, so the same file always maps to the
// same ID.
func RunID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	hash := sha256.Sum256([]byte(filepath.Clean(abs)))
	return prefix + hex.EncodeToString(hash[:16])
}

// IsPathID reports whether id was produced by RunID.
func IsPathID(id string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || len(rest) != 32 {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}
