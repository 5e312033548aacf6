// Package server provides the HTTP API for kensaku.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/search"
	"go.uber.org/zap"
)

// Loader builds a fresh index, typically from the configured corpus.
type Loader func(ctx context.Context) (*search.Index, error)

// Server is the HTTP server for the kensaku API. The served index is swapped
// atomically on reload; in-flight searches keep the index they started with.
type Server struct {
	index    atomic.Pointer[search.Index]
	loadedAt atomic.Int64
	reloads  atomic.Int64
	loader   Loader
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLoader enables reloading the index through loader.
func WithLoader(loader Loader) Option {
	return func(s *Server) { s.loader = loader }
}

// NewServer creates a server serving idx.
func NewServer(idx *search.Index, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.Swap(idx)
	return s
}

// Index returns the index currently served.
func (s *Server) Index() *search.Index {
	return s.index.Load()
}

// Swap replaces the served index.
func (s *Server) Swap(idx *search.Index) {
	s.index.Store(idx)
	s.loadedAt.Store(time.Now().UnixMilli())
}

// Reload builds a new index with the loader and swaps it in. The current index
// keeps being served when loading fails.
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errReloadDisabled
	}
	start := time.Now()
	idx, err := s.loader(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload index: %w", err)
	}
	s.Swap(idx)
	s.reloads.Add(1)
	s.logger.Info("index reloaded",
		zap.Int("documents", idx.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

var errReloadDisabled = errors.New("reload not enabled")

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
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
