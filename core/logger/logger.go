package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration with environment variable support.
type Config struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Format  string `env:"LOG_FORMAT" envDefault:"json"`
	Service string `env:"LOG_SERVICE" envDefault:"encoderd"`
}

// Option configures logger construction.
type Option func(*options)

type options struct {
	level  slog.Level
	json   bool
	output io.Writer
	attrs  []slog.Attr
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSONFormatter switches output to JSON format.
func WithJSONFormatter() Option {
	return func(o *options) {
		o.json = true
	}
}

// WithTextFormatter switches output to text format.
func WithTextFormatter() Option {
	return func(o *options) {
		o.json = false
	}
}

// WithOutput sets the output writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr attaches a static attribute to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithDevelopment configures text output at debug level with a service name.
func WithDevelopment(service string) Option {
	return func(o *options) {
		o.level = slog.LevelDebug
		o.json = false
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
	}
}

// WithProduction configures JSON output at info level with a service name.
func WithProduction(service string) Option {
	return func(o *options) {
		o.level = slog.LevelInfo
		o.json = true
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
	}
}

// New creates a logger with the given options.
// Defaults to text output at info level on stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}

	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}

	return slog.New(handler)
}

// NewFromConfig creates a logger from environment-driven configuration.
func NewFromConfig(cfg Config) *slog.Logger {
	opts := []Option{
		WithLevel(ParseLevel(cfg.Level)),
	}

	if strings.EqualFold(cfg.Format, "json") {
		opts = append(opts, WithJSONFormatter())
	} else {
		opts = append(opts, WithTextFormatter())
	}

	if cfg.Service != "" {
		opts = append(opts, WithAttr(slog.String("service", cfg.Service)))
	}

	return New(opts...)
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
