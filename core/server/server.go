package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Default timeouts applied when neither config nor options override them.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
)

// Server wraps http.Server with graceful shutdown. Safe for concurrent use.
type Server struct {
	mu             sync.Mutex
	addr           string
	server         *http.Server
	logger         *slog.Logger
	shutdown       time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	maxHeaderBytes int
	tlsConfig      *tls.Config
	running        bool
}

// New creates a Server listening on addr.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdown:       DefaultShutdownTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
		idleTimeout:    DefaultIdleTimeout,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start serves handler and blocks until the context is canceled or the
// listener fails. Returns ctx.Err() on cancellation; pair with Stop for a
// graceful exit.
func (s *Server) Start(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true

	s.server = &http.Server{
		Addr:           s.addr,
		Handler:        handler,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		TLSConfig:      s.tlsConfig,
	}
	hasTLS := s.tlsConfig != nil
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting server", slog.String("addr", s.addr), slog.Bool("tls", hasTLS))

		var err error
		if hasTLS {
			err = s.server.ListenAndServeTLS("", "")
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drains in-flight requests within the configured shutdown timeout.
// No-op when the server is not running.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server", slog.Duration("timeout", s.shutdown))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false

	if err != nil {
		s.logger.Error("server shutdown error", slog.Any("error", err))
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Run returns an errgroup-compatible function: it starts the server, waits
// for context cancellation, and shuts down gracefully. Cancellation is a
// normal exit, not an error.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx, handler)
		}()

		select {
		case <-ctx.Done():
			if stopErr := s.Stop(); stopErr != nil {
				s.logger.Error("failed to stop server", slog.Any("error", stopErr))
			}
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Run creates and runs a server with default settings.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	return New(addr).Start(ctx, handler)
}
