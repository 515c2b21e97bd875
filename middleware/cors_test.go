package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/behaviorsense/encoderd/middleware"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("wildcard allows any origin", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter(middleware.CORS())
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answered with 204", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter(middleware.CORS())
		r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("listed origin echoed back", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"https://app.example.com"},
		}))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"https://app.example.com"},
		}))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
