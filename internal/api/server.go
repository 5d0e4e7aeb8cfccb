// Copyright (c) 2026 Tabulo. All rights reserved.
// Author: platform@tabulo.dev

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tabulo-data/tabulo/internal/filtertree"
	"github.com/tabulo-data/tabulo/internal/pivot"
	"github.com/tabulo-data/tabulo/internal/platform/config"
	"github.com/tabulo-data/tabulo/internal/platform/constants"
	"github.com/tabulo-data/tabulo/internal/platform/middleware"
	"github.com/tabulo-data/tabulo/internal/querystore"
	"github.com/tabulo-data/tabulo/internal/stream"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// QueryStore resolves or creates compiled query entries per dataset.
	QueryStore *querystore.Handler

	// Stream serves compiled query results in the download formats.
	Stream *stream.Handler

	// Pivot serves dynamically pivoted result streams.
	Pivot *pivot.Handler

	// FilterTree serves per-revision faceted filter forests.
	FilterTree *filtertree.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution. The request timeout
	// is NOT global: result streams legitimately run for minutes, so the
	// deadline is scoped onto the non-streaming groups below.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	deadline := chimw.Timeout(constants.GlobalRequestTimeout)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.With(deadline).Route("/datasets", func(group chi.Router) {
			h.QueryStore.RegisterRoutes(group)
		})
		api.With(deadline).Route("/revisions", func(group chi.Router) {
			h.FilterTree.RegisterRoutes(group)
		})
		api.With(deadline).Get("/locales", listLocales)

		// Streaming group: no request deadline, the write timeout of the
		// http server is the only bound.
		api.Route("/query", func(group chi.Router) {
			h.Stream.RegisterRoutes(group)
			// Pivoting requires the DuckDB mirror, which is optional.
			if h.Pivot != nil {
				h.Pivot.RegisterRoutes(group)
			}
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
