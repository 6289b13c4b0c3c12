package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mercator-hq/janus/pkg/accounting"
	"mercator-hq/janus/pkg/config"
	"mercator-hq/janus/pkg/policy/engine"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/session"
)

// Server is the policy server's HTTP front end.
type Server struct {
	config   *config.ServerConfig
	engine   *engine.Evaluator
	policies *PolicySet
	dict     *dict.Dictionary
	sessions *session.Store
	recorder *accounting.Recorder
	metrics  http.Handler
	logger   *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once

	mu        sync.Mutex
	isRunning bool
}

// Options carries the server's collaborators. Sessions, Recorder and
// Metrics are optional.
type Options struct {
	Config   *config.ServerConfig
	Engine   *engine.Evaluator
	Policies *PolicySet
	Dict     *dict.Dictionary
	Sessions *session.Store
	Recorder *accounting.Recorder
	Metrics  http.Handler
	Logger   *slog.Logger
}

// New creates the HTTP server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   opts.Config,
		engine:   opts.Engine,
		policies: opts.Policies,
		dict:     opts.Dict,
		sessions: opts.Sessions,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /v1/sessions", s.handleSessionStart)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleSessionStop)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Shutdown drains in-flight requests and stops the server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("shutdown failed: %w", err)
			return
		}
		s.logger.Info("server stopped")
	})

	return shutdownErr
}
