package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request identifier.
const HeaderRequestID = "X-Request-ID"

// requestIDKey is the gin context key for the request ID.
const requestIDKey = "request_id"

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Generator creates new request IDs. Defaults to UUID v4.
	Generator func() string

	// UseExisting accepts an incoming X-Request-ID instead of generating
	// a fresh one.
	UseExisting bool
}

// RequestID assigns a unique identifier to each request, stores it in the
// gin context, and echoes it in the response headers.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{UseExisting: true})
}

// RequestIDWithConfig creates a request ID middleware with custom
// configuration.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(c *gin.Context) {
		var id string
		if cfg.UseExisting {
			id = c.GetHeader(HeaderRequestID)
		}
		if id == "" {
			id = cfg.Generator()
		}

		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID retrieves the request ID from the gin context. Returns an
// empty string when the middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
