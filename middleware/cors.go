package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowOrigins lists permitted origins. "*" allows any origin.
	AllowOrigins []string

	// AllowMethods lists permitted methods. Defaults to GET, POST, OPTIONS.
	AllowMethods []string

	// AllowHeaders lists permitted request headers. Defaults to
	// Content-Type and X-Request-ID.
	AllowHeaders []string
}

// CORS allows any origin. The service sits behind an internal gateway in
// production; tighten with CORSWithConfig when exposed directly.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(CORSConfig{AllowOrigins: []string{"*"}})
}

// CORSWithConfig creates a CORS middleware with custom configuration.
// Preflight OPTIONS requests are answered with 204 and never reach the
// handlers.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{"Content-Type", HeaderRequestID}
	}

	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	allowAny := slices.Contains(cfg.AllowOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			switch {
			case allowAny:
				c.Header("Access-Control-Allow-Origin", "*")
			case slices.Contains(cfg.AllowOrigins, origin):
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
