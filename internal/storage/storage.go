// Package storage persists chunking runs and their chunks, and writes the
// JSON artifacts of a run.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/mdchunk/internal/models"
)

// ErrNotFound is returned when a run or chunk ID does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines run and chunk persistence operations.
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Chunk operations
	BatchCreateChunks(ctx context.Context, runID string, chunks []*models.Chunk) error
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	GetChunksByRun(ctx context.Context, runID string) ([]*models.Chunk, error)

	// Stats
	CountRuns(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
