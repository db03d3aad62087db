package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	})

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Register(group).Setup()

	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, "1", w.Header().Get("X-Api"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outside", nil))
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("sales", "/sales")
		assert.Equal(t, "sales", g.Name())
		assert.Equal(t, "/sales", g.Prefix())
	})

	t.Run("registers methods", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "get") })
		g.PUT("/items", func(c *gin.Context) { c.String(http.StatusOK, "put") })
		g.DELETE("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "delete "+c.Param("id")) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method, path, body string
		}{
			{http.MethodGet, "/api/v1/test/items", "get"},
			{http.MethodPut, "/api/v1/test/items", "put"},
			{http.MethodDelete, "/api/v1/test/items/7", "delete 7"},
		}
		for _, tt := range tests {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, tt.method)
			assert.Equal(t, tt.body, w.Body.String())
		}
	})

	t.Run("applies group middleware and subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("parent", "/parent")
		g.Use(func(c *gin.Context) {
			c.Header("X-Group", "parent")
			c.Next()
		})
		g.Group("child", "/child").GET("/leaf", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/parent/child/leaf", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "parent", w.Header().Get("X-Group"))
	})
}
