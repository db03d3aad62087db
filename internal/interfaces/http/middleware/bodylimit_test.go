package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	newEngine := func(limit int64) *gin.Engine {
		engine := gin.New()
		engine.Use(BodyLimit(limit))
		engine.PUT("/api/v1/sales/:sale_id/items", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.Status(http.StatusOK)
		})
		return engine
	}

	t.Run("allows request within limit", func(t *testing.T) {
		engine := newEngine(1024)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/1/items", strings.NewReader(`{"items":[]}`))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects declared length over limit", func(t *testing.T) {
		engine := newEngine(10)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/1/items", strings.NewReader(`{"items":[1,2,3]}`))
		req.Header.Set(RequestIDHeader, "req-413")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
		assert.Contains(t, w.Body.String(), "req-413")
	})

	t.Run("caps streamed bodies without content length", func(t *testing.T) {
		engine := newEngine(50)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/1/items", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero disables the limit", func(t *testing.T) {
		engine := newEngine(0)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/1/items", strings.NewReader(strings.Repeat("x", 4096)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
