package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
)

// Middleware resolves the session into request-scoped identity data.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware. Public paths are
// reachable without a session: the home page, the public catalog, login and
// first-run setup, and the health endpoints.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/":            true,
		"/catalog":     true,
		"/health":      true,
		"/ping":        true,
		"/login":       true,
		"/logout":      true,
		"/setup":       true,
		"/favicon.ico": true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
	}
}

// Handler authenticates requests from the session cookie. Whoever is logged
// in ends up in the Gin context as {user_id, username, role}; anonymous
// visitors only reach public paths.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := m.trySessionAuth(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
			c.Set(ContextKeyRole, user.Role)
			c.Next()
			return
		}

		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
		c.Abort()
	}
}

// RequireAdmin gates the inventory and loan management screens.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		if GetUserRole(c) != entities.UserRoleAdmin {
			c.Redirect(http.StatusFound, "/?error=Forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuth gates screens any logged-in user may see.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// trySessionAuth attempts to authenticate using the session cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}

	return user
}

// isPublicPath checks if a path is accessible without authentication.
func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// Helper functions to extract auth data from the Gin context

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// IsAdmin reports whether the request carries the admin capability.
func IsAdmin(c *gin.Context) bool {
	return GetUserRole(c) == entities.UserRoleAdmin
}
