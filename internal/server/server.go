// Package server exposes a [store.Store] over a JSON HTTP API.
//
// Error responses carry {"error", "code"} and, for rejected payloads, a
// "fields" array naming every invalid field. Operations that target a
// missing node, edge or snapshot answer 404; sandbox transitions that do
// not apply answer 200 with outcome "ignored".
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stakegraph/pkg/snapshot"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// Server serves the HTTP API for one store.
type Server struct {
	store  *store.Store
	snaps  snapshot.Store
	log    *log.Logger
	router chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a server over st. Snapshot routes use snaps; a nil snaps
// falls back to an in-memory store.
func New(st *store.Store, snaps snapshot.Store, opts ...Option) *Server {
	if snaps == nil {
		snaps = snapshot.NewMemoryStore()
	}
	s := &Server{
		store: st,
		snaps: snaps,
		log:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/status", s.handleStatus)

	r.Route("/graph", func(r chi.Router) {
		r.Get("/", s.handleGetGraph)
		r.Put("/", s.handlePutGraph)
		r.Post("/propagate", s.handlePropagate)
		r.Get("/filtered", s.handleFiltered)
	})
	r.Get("/legend", s.handleLegend)

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.handleListNodes)
		r.Post("/", s.handleAddNode)
		r.Get("/{id}", s.handleGetNode)
		r.Patch("/{id}", s.handleUpdateNode)
		r.Delete("/{id}", s.handleRemoveNode)
		r.Get("/{id}/ancestors", s.handleAncestors)
	})
	r.Route("/edges", func(r chi.Router) {
		r.Get("/", s.handleListEdges)
		r.Post("/", s.handleAddEdge)
		r.Delete("/{id}", s.handleRemoveEdge)
	})

	r.Get("/selection", s.handleGetSelection)
	r.Put("/selection", s.handlePutSelection)
	r.Delete("/selection", s.handleClearSelection)

	r.Get("/filters", s.handleGetFilters)
	r.Put("/filters", s.handlePutFilters)

	r.Route("/sandbox", func(r chi.Router) {
		r.Get("/", s.handleSandbox)
		r.Post("/start", s.handleSandboxOp(s.store.StartSandbox))
		r.Post("/commit", s.handleSandboxOp(s.store.CommitSandbox))
		r.Post("/discard", s.handleSandboxOp(s.store.DiscardSandbox))
	})

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleListSnapshots)
		r.Post("/", s.handleSaveSnapshot)
		r.Get("/{id}", s.handleGetSnapshot)
		r.Post("/{id}/restore", s.handleRestoreSnapshot)
		r.Delete("/{id}", s.handleDeleteSnapshot)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, timeout)
}

// Serve is like [Server.Run] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
