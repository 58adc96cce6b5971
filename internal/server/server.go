// Package server provides the HTTP API for Mentora.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mentora/mentora/internal/config"
	"github.com/mentora/mentora/internal/ingest"
	"github.com/mentora/mentora/internal/retriever"
	"github.com/mentora/mentora/internal/watcher"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Mentora API.
type Server struct {
	retriever *retriever.Retriever
	ingestor  *ingest.Ingestor
	config    *config.Config
	watch     *watcher.Watcher
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil
// when directory watching is not configured.
func NewServer(
	ret *retriever.Retriever,
	ing *ingest.Ingestor,
	cfg *config.Config,
	watch *watcher.Watcher,
	logger *zap.Logger,
) *Server {
	return &Server{
		retriever: ret,
		ingestor:  ing,
		config:    cfg,
		watch:     watch,
		logger:    logger,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/knowledge", s.handleAddKnowledge)
	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/answer", s.handleAnswer)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectories)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
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
