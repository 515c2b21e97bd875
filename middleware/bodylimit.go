package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodySize bounds request bodies at 10 MB, enough for the largest
// allowed encode batch with headroom.
const DefaultMaxBodySize = 10 << 20

// BodyLimit rejects request bodies larger than maxBytes with 413. A
// non-positive limit falls back to DefaultMaxBodySize.
//
// Oversized requests with a Content-Length header are rejected before the
// body is read; chunked requests are capped while reading via
// http.MaxBytesReader, which surfaces as a binding error in the handler.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":  "request body too large",
				"status": "input_error",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
