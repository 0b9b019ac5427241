package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMeasureFootprint(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "chunks.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatal(err)
	}

	index := filepath.Join(dir, "bleve")
	if err := os.MkdirAll(filepath.Join(index, "store"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(index, "index_meta.json"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(index, "store", "root.bolt"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := MeasureFootprint(db, index)
	if err != nil {
		t.Fatal(err)
	}
	if got.DatabaseBytes != 8 {
		t.Errorf("database: got %d bytes, want 8", got.DatabaseBytes)
	}
	if got.IndexBytes != 3 {
		t.Errorf("index: got %d bytes, want 3", got.IndexBytes)
	}
	if got.Total() != 11 {
		t.Errorf("total: got %d, want 11", got.Total())
	}
}

func TestMeasureFootprint_missingPaths(t *testing.T) {
	dir := t.TempDir()
	got, err := MeasureFootprint(filepath.Join(dir, "nope.db"), filepath.Join(dir, "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Total() != 0 {
		t.Errorf("got %d, want 0", got.Total())
	}

	got, err = MeasureFootprint("", "")
	if err != nil || got.Total() != 0 {
		t.Errorf("empty paths: %v, %d", err, got.Total())
	}
}
