package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/telebox/internal/logger"
)

// Server is the gateway HTTP server.
//
// It supports graceful shutdown: cancelling the context given to Start
// drains in-flight uploads and retrievals before returning.
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a stopped server. Defaults are applied here as well so
// servers built directly (e.g. in tests) work without config loading.
func NewServer(config APIConfig, deps Deps) *Server {
	config.ApplyDefaults()
	if deps.RequestTimeout == 0 {
		deps.RequestTimeout = config.RequestTimeout
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           NewRouter(deps),
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Server{server: server, config: config}
}

// Start serves until ctx is cancelled or the listener fails. On
// cancellation it shuts down gracefully within shutdownTimeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Gateway listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Gateway shutdown signal received")
		// The parent ctx is already cancelled; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("gateway server failed: %w", err)
	}
}

// Stop shuts the server down. It is safe to call more than once and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Gateway shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("gateway shutdown error: %w", err)
			logger.Error("Gateway shutdown error", logger.Err(err))
		} else {
			logger.Info("Gateway stopped gracefully")
		}
	})
	return shutdownErr
}

// Handler returns the router, for serving without a listener.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.config.Port
}
