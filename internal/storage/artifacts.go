package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/mdchunk/internal/models"
)

// WriteChunksJSON writes the chunk records of a run as an indented JSON array.
// Parent directories are created if they do not exist.
func WriteChunksJSON(path string, records []models.ChunkRecord) error {
	if records == nil {
		records = []models.ChunkRecord{}
	}
	return writeJSON(path, records)
}

// WriteDiagnosticsJSON writes the out-of-bound chunk lists. Nothing is written
// and false is returned when diag has no entries.
func WriteDiagnosticsJSON(path string, diag *models.Diagnostics) (bool, error) {
	if diag.Empty() {
		return false, nil
	}
	out := *diag
	if out.TooSmall == nil {
		out.TooSmall = []models.OutOfBoundChunk{}
	}
	if out.TooLarge == nil {
		out.TooLarge = []models.OutOfBoundChunk{}
	}
	if err := writeJSON(path, out); err != nil {
		return false, err
	}
	return true, nil
}

// WriteReportJSON writes any JSON-encodable run report.
func WriteReportJSON(path string, report interface{}) error {
	return writeJSON(path, report)
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
