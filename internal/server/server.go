// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/query"
	"github.com/hyperjump/kotae/internal/records"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// requestTimeout bounds a whole request, including embedding and model calls.
const requestTimeout = 180 * time.Second

// Server is the HTTP server for the kotae API.
type Server struct {
	queries  *query.Service
	chunks   vector.Store
	records  records.Store
	keywords keyword.ChunkIndex // optional; nil disables chunk search
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	queries *query.Service,
	chunks vector.Store,
	recs records.Store,
	keywords keyword.ChunkIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		queries:  queries,
		chunks:   chunks,
		records:  recs,
		keywords: keywords,
		config:   cfg,
		logger:   logger,
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleRoot)
	r.Post("/submit_query", s.handleSubmitQuery)
	r.Get("/get_query", s.handleGetQuery)
	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/chunks/search", s.handleChunkSearch)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
