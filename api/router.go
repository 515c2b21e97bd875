package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/behaviorsense/encoderd/core/metrics"
	"github.com/behaviorsense/encoderd/encoder"
	"github.com/behaviorsense/encoderd/middleware"
	"github.com/behaviorsense/encoderd/pkg/ratelimiter"
)

// RouterConfig wires the middleware chain around the handlers.
type RouterConfig struct {
	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Collector brackets requests with start/end records when set.
	Collector *metrics.Collector

	// MaxBodySize bounds request bodies; zero uses the middleware default.
	MaxBodySize int64

	// RateLimiter enables per-client rate limiting when set.
	RateLimiter *ratelimiter.Bucket

	// AllowOrigins configures CORS; empty allows any origin.
	AllowOrigins []string
}

// NewRouter assembles the gin engine: recovery first, then request IDs,
// logging, metrics, CORS, body limits and rate limiting ahead of the
// handlers.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logging(cfg.Logger),
	)
	if cfg.Collector != nil {
		r.Use(middleware.Metrics(cfg.Collector))
	}
	r.Use(
		middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowOrigins}),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	for _, typ := range encoder.Types() {
		r.POST("/encode/"+typ.String(), h.Encode(typ))
		r.POST("/encode/batch/"+typ.String(), h.EncodeBatch(typ))
	}
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	r.GET("/metrics", h.Metrics)
	r.POST("/cache/clear", h.ClearCache)

	return r
}
