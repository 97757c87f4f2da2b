// Package server exposes the restoration demo over HTTP: upload endpoints,
// an SSE stream of run events, and a websocket hub mirroring the theater to
// every connected browser.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chiedza-labs/resurrect"
)

// Server hosts the HTTP surface around one orchestrator.
type Server struct {
	orch   *resurrect.Orchestrator
	hub    *Hub
	logger *slog.Logger
	http   *http.Server
}

// New builds a server listening on addr.
func New(addr string, orch *resurrect.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		orch:   orch,
		hub:    NewHub(logger),
		logger: logger.With("component", "server"),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Hub returns the websocket hub. Callers embedding the server elsewhere
// run it themselves via Hub().Run.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routed handler with CORS applied. Exposed so tests
// can drive the surface without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /restore", s.handleRestore)
	mux.HandleFunc("POST /restore/stream", s.handleRestoreStream)
	mux.HandleFunc("POST /restore/batch", s.handleRestoreBatch)
	mux.HandleFunc("GET /archives/{id}", s.handleArchive)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	return cors(mux)
}

// Run serves until ctx is cancelled, then drains connections gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.hub.Run(ctx)
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutCtx)
	})

	return g.Wait()
}

// cors allows the browser frontend to call from any origin. The demo has
// no authn surface to protect.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
