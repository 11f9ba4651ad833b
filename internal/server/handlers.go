package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"Hello": "World"})
}

func (s *Server) handleSubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("submit query request", zap.String("query_text", req.QueryText))
	rec, err := s.queries.Submit(r.Context(), req.QueryText)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("query failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetQuery(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("query_id")
	rec, ok, err := s.queries.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("get query failed", zap.String("query_id", id), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if !ok {
		s.respondJSON(w, http.StatusOK, nil)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chunkCount, err := s.chunks.Count(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recordCount, err := s.records.Count(ctx)
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"chunks":  chunkCount,
		"queries": recordCount,
	}
	if s.keywords != nil {
		if n, err := s.keywords.DocCount(); err == nil {
			resp["keyword_chunks"] = n
		}
	}

	cfg := s.config
	resp["config"] = cfg.Summary()
	diskBytes, err := storage.DiskUsageBytes(
		cfg.Storage.IndexPath,
		cfg.Storage.KeywordIndexPath,
		cfg.Storage.RecordsPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChunkSearch(w http.ResponseWriter, r *http.Request) {
	if s.keywords == nil {
		s.respondError(w, http.StatusNotImplemented, "keyword index not enabled")
		return
	}
	q := r.URL.Query()
	text := q.Get("q")
	if text == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := defaultSearchLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
	results, err := s.keywords.Search(r.Context(), text, limit, &keyword.SearchOptions{
		FuzzyEnabled: fuzzy,
		Highlight:    true,
	})
	if err != nil {
		s.logger.Error("chunk search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*keyword.Result{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   text,
		"results": results,
	})
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEmbeddingService), errors.Is(err, models.ErrModelService):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
