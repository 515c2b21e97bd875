package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/behaviorsense/encoderd/middleware"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	t.Run("logs completed requests", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		r := newTestRouter(middleware.Logging(log))
		r.GET("/encode/motion", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/encode/motion", nil))

		out := buf.String()
		assert.Contains(t, out, "request completed")
		assert.Contains(t, out, "/encode/motion")
		assert.Contains(t, out, `"status_code":200`)
	})

	t.Run("skips health checks", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		r := newTestRouter(middleware.Logging(log))
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Empty(t, buf.String())
	})

	t.Run("server errors logged at error level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		r := newTestRouter(middleware.Logging(log))
		r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		out := buf.String()
		assert.Contains(t, out, "request failed")
		assert.Contains(t, out, `"level":"ERROR"`)
	})

	t.Run("client errors logged at warn level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		r := newTestRouter(middleware.Logging(log))
		r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))

		out := buf.String()
		assert.Contains(t, out, "request rejected")
		assert.Contains(t, out, `"level":"WARN"`)
	})

	t.Run("includes request id when present", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		r := newTestRouter(middleware.RequestID(), middleware.Logging(log))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.HeaderRequestID, "req-42")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Contains(t, buf.String(), "req-42")
	})
}
