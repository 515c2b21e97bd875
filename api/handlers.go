package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/behaviorsense/encoderd/core/cache"
	"github.com/behaviorsense/encoderd/core/logger"
	"github.com/behaviorsense/encoderd/core/metrics"
	"github.com/behaviorsense/encoderd/encoder"
)

// serviceName identifies the service in health and status payloads.
const serviceName = "behavioral-encoder-api"

// Handler serves the encoder HTTP API.
type Handler struct {
	service   *encoder.Service
	cache     *cache.Manager
	collector *metrics.Collector
	logger    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for handler-level warnings.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.logger = log
		}
	}
}

// NewHandler creates the API handler.
func NewHandler(service *encoder.Service, cacheMgr *cache.Manager, collector *metrics.Collector, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:   service,
		cache:     cacheMgr,
		collector: collector,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type encodeRequest struct {
	Data encoder.Sample `json:"data"`
}

type batchEncodeRequest struct {
	BatchData []encoder.Sample `json:"batch_data"`
}

// Encode returns the handler for POST /encode/<type>. Routes are static per
// modality, matching the upstream gateway contract.
func (h *Handler) Encode(typ encoder.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.encode(c, typ)
	}
}

func (h *Handler) encode(c *gin.Context, typ encoder.Type) {
	var req encodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "missing or malformed data field in request")
		return
	}
	if len(req.Data) == 0 {
		respondBadRequest(c, "missing data field in request")
		return
	}

	embedding, err := h.service.Encode(c.Request.Context(), typ, req.Data)
	if err != nil {
		h.logger.Warn("encode failed", logger.Model(typ.String()), logger.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"embedding":  embedding,
		"dimension":  len(embedding),
		"model_type": typ.ModelName(),
		"status":     "success",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// EncodeBatch returns the handler for POST /encode/batch/<type>.
func (h *Handler) EncodeBatch(typ encoder.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.encodeBatch(c, typ)
	}
}

func (h *Handler) encodeBatch(c *gin.Context, typ encoder.Type) {
	var req batchEncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "missing or malformed batch_data field in request")
		return
	}
	if len(req.BatchData) == 0 {
		respondBadRequest(c, "missing batch_data field in request")
		return
	}

	embeddings, err := h.service.EncodeBatch(c.Request.Context(), typ, req.BatchData)
	if err != nil {
		h.logger.Warn("batch encode failed", logger.Model(typ.String()), logger.Error(err), logger.Count(len(req.BatchData)))
		respondError(c, err)
		return
	}

	dimension := 0
	if len(embeddings) > 0 {
		dimension = len(embeddings[0])
	}

	c.JSON(http.StatusOK, gin.H{
		"embeddings": embeddings,
		"count":      len(embeddings),
		"dimension":  dimension,
		"model_type": typ.ModelName(),
		"status":     "success",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /health. The service is alive as long as at least one
// model can serve; with none loaded it reports 503 so orchestrators restart
// or route around it.
func (h *Handler) Health(c *gin.Context) {
	loaded := 0
	for _, info := range h.service.ModelStatus() {
		if info.Loaded {
			loaded++
		}
	}

	if loaded == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"message":   "no encoder models loaded",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"message":   "service is running",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Status handles GET /status with model availability and the effective
// configuration.
func (h *Handler) Status(c *gin.Context) {
	models := h.service.ModelStatus()

	overall := "healthy"
	for _, info := range models {
		if !info.Loaded {
			overall = "degraded"
			break
		}
	}

	limits := h.service.Limits()
	c.JSON(http.StatusOK, gin.H{
		"service":   serviceName,
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"models":    models,
		"endpoints": gin.H{
			"encode":       "/encode/{motion|gesture|typing}",
			"encode_batch": "/encode/batch/{motion|gesture|typing}",
			"health":       "/health",
			"status":       "/status",
			"metrics":      "/metrics",
		},
		"config": gin.H{
			"max_batch_size":      limits.MaxBatchSize,
			"max_sequence_length": limits.MaxSequenceLength,
			"cache_enabled":       h.cache.Enabled(),
		},
	})
}

// Metrics handles GET /metrics: the collector snapshot plus per-namespace
// cache statistics.
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": h.collector.Snapshot(),
		"cache":   h.cache.Stats(c.Request.Context()),
	})
}

// ClearCache handles POST /cache/clear. An optional ?type= query limits the
// clear to one namespace.
func (h *Handler) ClearCache(c *gin.Context) {
	ctx := c.Request.Context()

	if name := c.Query("type"); name != "" {
		typ, err := encoder.ParseType(name)
		if err != nil {
			respondError(c, err)
			return
		}
		h.cache.Clear(ctx, typ.String())
		h.logger.Info("cache namespace cleared", logger.Model(typ.String()))
		c.JSON(http.StatusOK, gin.H{"status": "success", "cleared": typ.String()})
		return
	}

	h.cache.Clear(ctx)
	h.logger.Info("all cache namespaces cleared")
	c.JSON(http.StatusOK, gin.H{"status": "success", "cleared": "all"})
}
