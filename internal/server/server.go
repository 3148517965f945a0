package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mseren/cortexviz/pkg/scene"
	"github.com/mseren/cortexviz/pkg/smg"
)

// Server holds the HTTP interface over the graph store. The store is the
// single shared mutable resource; all handler access is serialized through
// mu so a mutation, including its index rebuild, fully completes before any
// read observes state.
type Server struct {
	mu      sync.Mutex
	store   *smg.Store
	mutator *smg.Mutator
	builder *scene.Builder

	sessions map[string]*smg.Session

	cfg        *Config
	httpServer *http.Server
}

// NewServer initializes the HTTP server around an existing store.
func NewServer(store *smg.Store, cfg *Config) *Server {
	s := &Server{
		store:    store,
		mutator:  smg.NewMutator(store),
		builder:  scene.NewBuilder(store, cfg.View.Limits()),
		sessions: make(map[string]*smg.Session),
		cfg:      cfg,
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Chain middlewares: Recovery -> Logging -> Mux.
	// Recovery must be outer-most to catch everything.
	var handler http.Handler = mux
	handler = s.LoggingMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("/", handler)

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8710"
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: rootMux,
	}

	return s
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown() {
	slog.Info("starting graceful shutdown of HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}

// newSession registers a fresh session and returns it. Sessions carry the
// current selection, the dirty flag and accumulated mutation warnings;
// nothing in pkg/smg or pkg/scene holds this state.
func (s *Server) newSession() *smg.Session {
	sess := smg.NewSession()
	sess.ID = uuid.New().String()
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Server) session(id string) (*smg.Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}
