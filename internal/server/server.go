package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default HTTP server configuration.
// WriteTimeout stays 0: SSE streams are long-lived responses.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8000,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    0,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// CloserFunc releases a resource during shutdown.
type CloserFunc func(ctx context.Context) error

// Server wraps the HTTP server and the resources released after it stops.
type Server struct {
	config Config
	http   *http.Server
	logger *slog.Logger

	mu      sync.Mutex
	closers []CloserFunc
	ready   chan struct{}
	addr    string
}

// NewServer creates a new HTTP server for handler. Request contexts are
// cancelled when Shutdown starts, which ends open SSE streams; Shutdown
// would otherwise wait on them until its deadline.
func NewServer(handler http.Handler, config Config, logger *slog.Logger) *Server {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:           handler,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	httpServer.RegisterOnShutdown(cancelBase)

	return &Server{
		config: config,
		http:   httpServer,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server stops. Closers run in
// reverse registration order.
func (s *Server) OnShutdown(fn CloserFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound address once Ready is closed, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.http.Addr
}

// Start listens and serves until the server is shut down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	select {
	case err := <-errCh:
		return errors.Join(err, s.closeResources(context.Background()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)
	if err := <-errCh; err != nil {
		return errors.Join(err, shutdownErr)
	}
	return shutdownErr
}

// Shutdown gracefully stops the HTTP server and then runs the closers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := s.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		s.logger.Info("server shutdown complete")
	}
	return errors.Join(errs...)
}

func (s *Server) closeResources(ctx context.Context) error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
