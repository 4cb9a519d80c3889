package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/library-manager/internal/entities"
)

func setIdentity(userID uint, username string, role entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyUsername, username)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

func TestMiddleware_Handler_PublicPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMiddleware(nil, nil)

	router := gin.New()
	router.Use(m.Handler())
	router.GET("/catalog", func(c *gin.Context) { c.String(http.StatusOK, "public") })
	router.GET("/loans/mine", func(c *gin.Context) { c.String(http.StatusOK, "private") })

	t.Run("anonymous visitor reaches a public path", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/catalog", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "public", w.Body.String())
	})

	t.Run("anonymous visitor is redirected from a private path", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/loans/mine", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?next=/loans/mine", w.Header().Get("Location"))
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMiddleware(nil, nil)

	newRouter := func(identity gin.HandlerFunc) *gin.Engine {
		router := gin.New()
		if identity != nil {
			router.Use(identity)
		}
		admin := router.Group("/admin", m.RequireAdmin())
		admin.GET("/books", func(c *gin.Context) { c.String(http.StatusOK, "books") })
		return router
	}

	t.Run("admin passes", func(t *testing.T) {
		router := newRouter(setIdentity(1, "admin", entities.UserRoleAdmin))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("regular user is turned away", func(t *testing.T) {
		router := newRouter(setIdentity(2, "reader", entities.UserRoleUser))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/?error=Forbidden", w.Header().Get("Location"))
	})

	t.Run("anonymous visitor is sent to login", func(t *testing.T) {
		router := newRouter(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?next=/admin/books", w.Header().Get("Location"))
	})
}

func TestMiddleware_RequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMiddleware(nil, nil)

	t.Run("any logged-in user passes", func(t *testing.T) {
		router := gin.New()
		router.Use(setIdentity(2, "reader", entities.UserRoleUser))
		router.GET("/loans/mine", m.RequireAuth(), func(c *gin.Context) { c.String(http.StatusOK, "mine") })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/loans/mine", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("anonymous visitor is sent to login", func(t *testing.T) {
		router := gin.New()
		router.GET("/loans/mine", m.RequireAuth(), func(c *gin.Context) { c.String(http.StatusOK, "mine") })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/loans/mine", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
	})
}

func TestSanitizeRedirectPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"local path", "/catalog", "/catalog"},
		{"empty", "", "/"},
		{"protocol relative", "//evil.com", "/"},
		{"absolute url", "https://evil.com", "/"},
		{"backslash", "/\\evil", "/"},
		{"relative", "catalog", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeRedirectPath(tt.path))
		})
	}
}
