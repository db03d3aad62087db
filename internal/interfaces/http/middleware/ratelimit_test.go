package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	return limiter, &clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client"))
	})

	t.Run("separate limits per key", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, clock := newTestLimiter(t, 2, time.Minute)

		assert.True(t, limiter.Allow("client"))
		assert.True(t, limiter.Allow("client"))
		assert.False(t, limiter.Allow("client"))

		*clock = clock.Add(time.Minute)
		assert.True(t, limiter.Allow("client"))
		assert.Equal(t, 1, limiter.Remaining("client"))
	})

	t.Run("retry after counts down", func(t *testing.T) {
		limiter, clock := newTestLimiter(t, 1, time.Minute)

		limiter.Allow("client")
		*clock = clock.Add(45 * time.Second)
		assert.Equal(t, 15, limiter.retryAfter("client"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 100, time.Minute)
		var (
			wg      sync.WaitGroup
			allowed atomic.Int64
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(100), allowed.Load())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(RateLimit(limiter))
	engine.PUT("/api/v1/sales/:sale_id/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/1/items", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	w := send("192.168.1.10:1234")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("192.168.1.10:1234").Code)

	w = send("192.168.1.10:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusOK, send("192.168.1.11:1234").Code)
}

func TestRateLimitByKey_NilLimiter(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitByKey(nil, func(c *gin.Context) string { return "" }))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := serve(engine, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
