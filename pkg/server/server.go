// Package server exposes link detection over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coolbeans/lawlinks/pkg/citation"
	"github.com/coolbeans/lawlinks/pkg/config"
	"github.com/coolbeans/lawlinks/pkg/logging"
	"github.com/coolbeans/lawlinks/pkg/metrics"
)

// Detector finds links in text. *detect.Detector implements it.
type Detector interface {
	Detect(ctx context.Context, text string) ([]citation.Link, error)
	Ready() bool
}

// Server is the HTTP front end of a Detector.
type Server struct {
	srv             *http.Server
	handler         http.Handler
	detector        Detector
	metrics         *metrics.Metrics
	logger          logging.Logger
	maxBodyBytes    int64
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for requests and lifecycle events.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server for d listening as cfg describes.
func New(cfg config.ServerConfig, d Detector, opts ...Option) *Server {
	s := &Server{
		detector:        d,
		metrics:         metrics.NewNop(),
		logger:          logging.NewNopLogger(),
		maxBodyBytes:    cfg.MaxBodyBytes,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = config.DefaultMaxBodyBytes
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = config.DefaultShutdownTimeout
	}

	s.handler = chain(s.routes(),
		requestID,
		requestLogging(s.logger),
		recovery(s.logger),
	)
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /detect", s.handleDetect)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves until Stop is called. It returns nil after a
// graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests up to the
// configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
