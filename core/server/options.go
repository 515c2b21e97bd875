package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures server behavior.
type Option func(*Server)

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTLS serves HTTPS with the given TLS configuration.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = config
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdown = timeout
		}
	}
}

// WithReadTimeout sets the request read timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.readTimeout = timeout
		}
	}
}

// WithWriteTimeout sets the response write timeout.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.writeTimeout = timeout
		}
	}
}

// WithIdleTimeout sets the idle connection timeout.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.idleTimeout = timeout
		}
	}
}

// WithMaxHeaderBytes caps request header size.
func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHeaderBytes = n
		}
	}
}
