package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/mdchunk/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		base_url TEXT,
		timestamp TEXT,
		pages INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		source_size INTEGER NOT NULL DEFAULT 0,
		source_mtime INTEGER NOT NULL DEFAULT 0,
		report TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		page_index INTEGER NOT NULL,
		h1 TEXT NOT NULL DEFAULT '',
		h2 TEXT NOT NULL DEFAULT '',
		h3 TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		core_text TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		overlap_tokens INTEGER NOT NULL DEFAULT 0,
		source_url TEXT,
		page_title TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_run_id ON chunks(run_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_run_position ON chunks(run_id, position);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts a run or replaces the stored run with the same ID.
// Chunks of a replaced run are kept; call DeleteRun first to drop them.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *models.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	var report interface{}
	if len(run.Report) > 0 {
		report = string(run.Report)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
		 (id, source, base_url, timestamp, pages, chunks, total_tokens, errors, source_size, source_mtime, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.BaseURL, run.Timestamp, run.Pages, run.Chunks, run.TotalTokens,
		run.Errors, run.SourceSize, run.SourceMtime, report, run.CreatedAt,
	)
	return err
}

const runColumns = `id, source, base_url, timestamp, pages, chunks, total_tokens, errors,
	source_size, source_mtime, report, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run                models.Run
		baseURL, timestamp sql.NullString
		report             sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Source, &baseURL, &timestamp, &run.Pages, &run.Chunks,
		&run.TotalTokens, &run.Errors, &run.SourceSize, &run.SourceMtime, &report, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.BaseURL = baseURL.String
	run.Timestamp = timestamp.String
	if report.Valid && report.String != "" {
		run.Report = []byte(report.String)
	}
	return &run, nil
}

// GetRun returns a run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs, newest first, with offset and limit.
func (s *SQLiteStorage) ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and all of its chunks. Deleting an unknown run is not an error.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// BatchCreateChunks inserts the chunks of a run in a transaction, keeping their order.
func (s *SQLiteStorage) BatchCreateChunks(ctx context.Context, runID string, chunks []*models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, run_id, position, page_index, h1, h2, h3, text, core_text,
		 token_count, overlap_tokens, source_url, page_title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, runID, i, c.PageIndex,
			c.Headers.H1, c.Headers.H2, c.Headers.H3, c.Text, c.CoreText,
			c.TokenCount, c.OverlapTokens, c.SourceURL, c.PageTitle, now); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

const chunkColumns = `id, page_index, h1, h2, h3, text, core_text, token_count, overlap_tokens,
	source_url, page_title`

func scanChunk(row rowScanner) (*models.Chunk, error) {
	var (
		c                models.Chunk
		sourceURL, title sql.NullString
	)
	if err := row.Scan(&c.ID, &c.PageIndex, &c.Headers.H1, &c.Headers.H2, &c.Headers.H3,
		&c.Text, &c.CoreText, &c.TokenCount, &c.OverlapTokens, &sourceURL, &title); err != nil {
		return nil, err
	}
	c.SourceURL = sourceURL.String
	c.PageTitle = title.String
	c.CoreTokens = c.TokenCount - c.OverlapTokens
	return &c, nil
}

// GetChunk returns a chunk by ID.
func (s *SQLiteStorage) GetChunk(ctx context.Context, id string) (*models.Chunk, error) {
	c, err := scanChunk(s.db.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetChunksByRun returns all chunks of a run in emission order.
func (s *SQLiteStorage) GetChunksByRun(ctx context.Context, runID string) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountRuns returns the total number of runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
