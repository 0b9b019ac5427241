package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Footprint is the on-disk size of the chunk database and keyword index.
type Footprint struct {
	DatabaseBytes int64 `json:"database_bytes"`
	IndexBytes    int64 `json:"index_bytes"`
}

// Total returns the combined size.
func (f Footprint) Total() int64 {
	return f.DatabaseBytes + f.IndexBytes
}

// MeasureFootprint sizes the database file (with its WAL and shared-memory
// siblings) and the keyword index directory. Missing paths count as zero.
func MeasureFootprint(databasePath, indexPath string) (Footprint, error) {
	var (
		f   Footprint
		err error
	)
	if databasePath != "" {
		for _, p := range []string{databasePath, databasePath + "-wal", databasePath + "-shm"} {
			n, sizeErr := pathSize(p)
			if sizeErr != nil {
				return Footprint{}, sizeErr
			}
			f.DatabaseBytes += n
		}
	}
	if f.IndexBytes, err = pathSize(indexPath); err != nil {
		return Footprint{}, err
	}
	return f, nil
}

// pathSize returns the size of a file or the recursive size of a directory.
func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
