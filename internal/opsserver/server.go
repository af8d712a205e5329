package opsserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownGrace = 5 * time.Second

// Server exposes operator endpoints: /healthz and /metrics.
type Server struct {
	addr       string
	router     chi.Router
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup
}

// New creates an ops server. metrics may be nil, in which case /metrics is not mounted.
func New(addr string, metrics http.Handler, logger *slog.Logger) *Server {
	s := &Server{addr: addr, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	s.router = r
	return s
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves in the background until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("ops server listening", "addr", ln.Addr().String())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops server failed", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("ops server shutdown", "error", err)
		}
	}()
	return nil
}

// Wait blocks until the server has shut down after its context ended.
func (s *Server) Wait() {
	s.wg.Wait()
}
