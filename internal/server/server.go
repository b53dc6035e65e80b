// Package server provides the HTTP API for traceviz.
//
// The API exposes the visualization pipeline over HTTP for frontend use:
//
//	POST /api/v1/visualize    compile a query's decision trace into a graph
//	GET  /api/v1/graphs/{id}  fetch a previously compiled graph
//	GET  /api/v1/graphs       list recent graphs, optionally per session
//	GET  /healthz             liveness probe
//
// Responses are JSON. Errors carry a machine-readable code from the errors
// package alongside a human-readable message.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/greenroom-ai/traceviz/pkg/integrations/analysis"
	"github.com/greenroom-ai/traceviz/pkg/pipeline"
	"github.com/greenroom-ai/traceviz/pkg/store"
)

// Config holds configuration for the API server.
type Config struct {
	Addr     string
	Runner   *pipeline.Runner
	Store    store.Store
	Analysis *analysis.Client
	Logger   *log.Logger
}

// Server is the traceviz API server.
type Server struct {
	addr     string
	runner   *pipeline.Runner
	store    store.Store
	analysis *analysis.Client
	logger   *log.Logger
}

// New creates an API server. A nil store disables persistence (visualize
// still works, graph lookup returns 404 for everything). A nil runner gets
// a default uncached runner.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	return &Server{
		addr:     cfg.Addr,
		runner:   cfg.Runner,
		store:    cfg.Store,
		analysis: cfg.Analysis,
		logger:   cfg.Logger,
	}
}

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		s.logRequests,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/visualize", s.handleVisualize)
		r.Get("/graphs", s.handleListGraphs)
		r.Get("/graphs/{id}", s.handleGetGraph)
	})

	return r
}

// Serve starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
