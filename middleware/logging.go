package middleware

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/behaviorsense/encoderd/core/logger"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Logger receives the request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// SkipPaths are request paths that are never logged. Health probes
	// belong here.
	SkipPaths []string

	// SlowThreshold promotes requests slower than this to warning level.
	// Defaults to 5s.
	SlowThreshold time.Duration
}

// Logging logs one line per request with the default configuration,
// skipping /health.
func Logging(log *slog.Logger) gin.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{
		Logger:    log,
		SkipPaths: []string{"/health"},
	})
}

// LoggingWithConfig creates a request logging middleware with custom
// configuration.
func LoggingWithConfig(cfg LoggingConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 5 * time.Second
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		attrs := []any{
			logger.Method(c.Request.Method),
			logger.Path(c.Request.URL.Path),
			logger.StatusCode(c.Writer.Status()),
			logger.Latency(elapsed),
			logger.RemoteAddr(c.ClientIP()),
		}
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, logger.RequestID(id))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			cfg.Logger.Error("request failed", attrs...)
		case elapsed >= cfg.SlowThreshold:
			cfg.Logger.Warn("slow request", attrs...)
		case c.Writer.Status() >= 400:
			cfg.Logger.Warn("request rejected", attrs...)
		default:
			cfg.Logger.Info("request completed", attrs...)
		}
	}
}
