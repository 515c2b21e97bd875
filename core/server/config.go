package server

import (
	"crypto/tls"
	"fmt"
	"time"
)

// Config holds server configuration with environment variable support.
type Config struct {
	Addr string `env:"SERVER_ADDR" envDefault:":8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	MaxHeaderBytes int `env:"SERVER_MAX_HEADER_BYTES" envDefault:"1048576"`

	// TLS is enabled when both files are set.
	TLSCertFile string `env:"SERVER_TLS_CERT_FILE" envDefault:""`
	TLSKeyFile  string `env:"SERVER_TLS_KEY_FILE" envDefault:""`
}

// NewFromConfig creates a Server from configuration. Options passed here
// override config values.
func NewFromConfig(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}

	configOpts := []Option{
		WithReadTimeout(cfg.ReadTimeout),
		WithWriteTimeout(cfg.WriteTimeout),
		WithIdleTimeout(cfg.IdleTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithMaxHeaderBytes(cfg.MaxHeaderBytes),
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		tlsConfig, err := loadTLSFromFiles(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("server: load tls config: %w", err)
		}
		configOpts = append(configOpts, WithTLS(tlsConfig))
	}

	configOpts = append(configOpts, opts...)
	return New(cfg.Addr, configOpts...), nil
}

func loadTLSFromFiles(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
