package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/behaviorsense/encoderd/core/metrics"
)

// Metrics brackets every request with the collector: the active-request
// gauge goes up before the handler runs and the end record carries the
// route template, final status, and latency. Unmatched routes fall back to
// the raw path so 404 traffic stays visible without unbounded label growth
// on matched routes.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		collector.RecordRequestStart()
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		collector.RecordRequestEnd(endpoint, c.Writer.Status(), time.Since(start))
	}
}
