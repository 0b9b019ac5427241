package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/mdchunk/internal/config"
	"github.com/hyperjump/mdchunk/internal/extract"
	"github.com/hyperjump/mdchunk/internal/models"
	"github.com/hyperjump/mdchunk/internal/storage"
	"github.com/hyperjump/mdchunk/internal/validator"
	"go.uber.org/zap"
)

const maxDocumentBytes = 64 << 20

// chunkResponse is returned by POST /api/v1/chunk.
type chunkResponse struct {
	RunID       string               `json:"run_id"`
	Chunks      []models.ChunkRecord `json:"chunks"`
	Report      *validator.Report    `json:"report"`
	Summary     string               `json:"summary"`
	Diagnostics *models.Diagnostics  `json:"diagnostics,omitempty"`
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	ext := ".json"
	if r.URL.Query().Get("format") == "markdown" {
		ext = ".md"
	}
	name := r.URL.Query().Get("source")
	if name == "" {
		name = "api"
	}
	s.logger.Debug("chunk request", zap.Int("bytes", len(body)), zap.String("source", name))

	run, result, err := s.indexer.IndexBytes(r.Context(), body, ext, name)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.Is(err, extract.ErrInvalidDocument) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("chunking failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(result.Report.Errors) > 0 {
		s.logger.Warn("chunking reported validation errors",
			zap.String("run_id", run.ID),
			zap.Int("errors", len(result.Report.Errors)))
	}
	resp := chunkResponse{
		RunID:   run.ID,
		Chunks:  models.Records(result.Chunks),
		Report:  result.Report,
		Summary: result.Report.Summary(),
	}
	if !result.Diagnostics.Empty() {
		resp.Diagnostics = result.Diagnostics
	}
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chunk, err := s.storage.GetChunk(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, "chunk", err)
		return
	}
	s.respondJSON(w, http.StatusOK, chunk.Record())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)
	runs, err := s.storage.ListRuns(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.storage.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, "run", err)
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRunChunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := s.storage.GetRun(ctx, id); err != nil {
		s.respondStorageError(w, "run", err)
		return
	}
	chunks, err := s.storage.GetChunksByRun(ctx, id)
	if err != nil {
		s.logger.Error("get run chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"chunks": models.Records(chunks)})
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete run request", zap.String("id", id))
	if err := s.indexer.DeleteRun(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
	query := models.SearchQuery{
		Query:        q.Get("q"),
		Limit:        queryInt(r, "limit", 0),
		FuzzyEnabled: fuzzy,
		RunID:        q.Get("run"),
	}
	if query.Query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runCount, err := s.storage.CountRuns(ctx)
	if err != nil {
		s.logger.Error("status: count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"runs":   runCount,
		"chunks": chunkCount,
	}

	if s.watchConfig != nil {
		c := s.watchConfig.Chunking
		resp["config"] = map[string]interface{}{
			"max_tokens":           c.MaxTokens,
			"soft_token_limit":     c.SoftTokenLimit,
			"min_chunk_size":       c.MinChunkSize,
			"overlap_percentage":   c.OverlapPercentage,
			"overlap_across_pages": c.OverlapAcrossPagesOrDefault(),
			"encoding":             s.watchConfig.Tokenizer.Encoding,
			"database_path":        s.watchConfig.Storage.DatabasePath,
			"bleve_index_path":     s.watchConfig.Storage.BleveIndexPath,
		}
		footprint, err := storage.MeasureFootprint(s.watchConfig.Storage.DatabasePath, s.watchConfig.Storage.BleveIndexPath)
		if err == nil {
			resp["disk_usage_bytes"] = footprint.Total()
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	s.watchConfig.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.watchConfig)
	s.watchConfigMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func (s *Server) respondStorageError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.logger.Error("storage lookup failed", zap.String("kind", what), zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
