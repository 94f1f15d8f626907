// Package server hosts the HTTP surface of the run service: a job
// catalog, run submission, and run status lookups.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parsecdata/wfrun/internal/config"
	"github.com/parsecdata/wfrun/internal/observability"
	"github.com/parsecdata/wfrun/internal/server/handlers"
	"github.com/parsecdata/wfrun/pkg/jobspec"
)

// Deps are the collaborators the endpoints need.
type Deps struct {
	// Launcher submits runs. Required for POST /api/v1/runs.
	Launcher handlers.JobLauncher

	// Runs looks up run snapshots. Required for GET /api/v1/runs/{runID}.
	Runs handlers.RunGetter

	// Specs is the configured job catalog, keyed by job name. May be
	// empty; submissions for jobs without a spec skip local validation.
	Specs map[string]*jobspec.Spec

	// Version is reported by /healthz.
	Version string
}

// Server is the HTTP run service.
type Server struct {
	cfg    config.ServerConfig
	router chi.Router
	http   *http.Server
}

// New builds a server with routes and middleware installed. It does not
// start listening; call Start.
func New(cfg config.ServerConfig, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/healthz", handlers.Health(deps.Version))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jobs", handlers.JobCatalog(deps.Specs))
		r.Post("/runs", handlers.SubmitRun(deps.Launcher, deps.Specs))
		r.Get("/runs/{runID}", handlers.GetRunStatus(deps.Runs))
	})

	return &Server{
		cfg:    cfg,
		router: r,
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start serves until ctx is canceled, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		observability.CLILogger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	observability.CLILogger.Info("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// requestLogger logs one line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.CLILogger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
