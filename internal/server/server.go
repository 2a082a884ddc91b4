// Package server implements the gridplan HTTP API.
//
// Routes:
//
//	GET    /healthz                      liveness and build info
//	GET    /v1/catalog                   entity kinds of the server catalog
//	POST   /v1/generate/{generator}      run pipes, poles or beacons on the body
//	GET    /v1/blueprints                list saved blueprints
//	POST   /v1/blueprints                save the body under a fresh name
//	GET    /v1/blueprints/{name}         fetch a saved blueprint
//	PUT    /v1/blueprints/{name}         save the body under name
//	DELETE /v1/blueprints/{name}         delete a saved blueprint
//
// Bodies and responses are JSON. Blueprints use the raw form of package
// blueprint. Errors are returned as {"error": {"code": ..., "message": ...}}
// with a status derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/config"
	"github.com/matzehuels/gridplan/pkg/generate"
	"github.com/matzehuels/gridplan/pkg/pipeline"
	"github.com/matzehuels/gridplan/pkg/store"
)

// Config wires a Server to its collaborators.
type Config struct {
	// Runner executes generators. Nil means an uncached runner.
	Runner *pipeline.Runner
	// Store backs the /v1/blueprints routes. Nil disables them.
	Store store.Store
	// Catalog resolves entity kinds. Nil means the built-in catalog.
	Catalog *catalog.Catalog
	// Generate holds the default generator options; query parameters
	// override them per request.
	Generate generate.Options

	Logger       *log.Logger
	MaxBodyBytes int64
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Builtin()
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	cfg.Generate.SetDefaults()

	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/generate/{generator}", s.handleGenerate)

		if s.cfg.Store != nil {
			r.Route("/blueprints", func(r chi.Router) {
				r.Get("/", s.handleList)
				r.Post("/", s.handleCreate)
				r.Get("/{name}", s.handleGet)
				r.Put("/{name}", s.handlePut)
				r.Delete("/{name}", s.handleDelete)
			})
		}
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		s.cfg.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
