package auth

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/entities"
)

// setupMutex serializes setup requests to prevent race conditions.
var setupMutex sync.Mutex

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if
// invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthController handles login, logout and first-run setup.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	next := sanitizeRedirectPath(c.Query("next"))

	// First run: no accounts yet, send the visitor to setup
	hasUsers, _ := ac.service.HasUsers()
	if !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	c.HTML(http.StatusOK, "login", gin.H{
		"Title":     "Login",
		"Next":      next,
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))

	if username == "" || password == "" {
		c.HTML(http.StatusOK, "login", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Username and password are required.",
		})
		return
	}

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		errorMsg := "Invalid username or password."
		if errors.Is(err, ErrAccountLocked) {
			errorMsg = "Account is locked due to too many failed login attempts. Try again later."
		}
		c.HTML(http.StatusOK, "login", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
		})
		return
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			c.String(http.StatusInternalServerError, "Failed to create session")
			return
		}
	}

	// Admins land on the dashboard unless they asked for a specific page
	if next == "/" && user.IsAdmin() {
		next = "/admin"
	}

	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to login.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.Redirect(http.StatusFound, "/login")
}

// SetupPage renders the initial admin setup form.
func (ac *AuthController) SetupPage(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		ac.renderSetup(c, "", "", "Database error. Please try again.")
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	ac.renderSetup(c, "", "", c.Query("error"))
}

// Setup handles the initial admin account creation. A mutex prevents
// concurrent requests from both passing the HasUsers() check.
func (ac *AuthController) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		ac.renderSetup(c, "", "", "Database error. Please try again.")
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	if password != confirmPassword {
		ac.renderSetup(c, username, email, "Passwords do not match")
		return
	}

	user, err := ac.service.CreateUser(username, email, password, entities.UserRoleAdmin)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			// Another request won the race, redirect to login
			c.Redirect(http.StatusFound, "/login")
			return
		}
		ac.renderSetup(c, username, email, setupErrorMessage(err))
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, user)
	}

	c.Redirect(http.StatusFound, "/admin")
}

func (ac *AuthController) renderSetup(c *gin.Context, username, email, errorMsg string) {
	c.HTML(http.StatusOK, "setup", gin.H{
		"Title":     "Initial Setup",
		"Username":  username,
		"Email":     email,
		"CSRFToken": GetCSRFToken(c),
		"Error":     errorMsg,
	})
}

func setupErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return "Password must be at least 6 characters"
	case errors.Is(err, ErrPasswordTooLong):
		return "Password exceeds maximum length of 72 characters"
	case errors.Is(err, ErrUsernameRequired):
		return "Username is required"
	case errors.Is(err, ErrUsernameInvalid):
		return "Username must be 3-64 characters, alphanumeric with underscore/hyphen only"
	case errors.Is(err, ErrEmailRequired):
		return "Email is required"
	case errors.Is(err, ErrEmailInvalid):
		return "Invalid email format"
	case errors.Is(err, ErrPasswordRequired):
		return "Password is required"
	}
	return "Failed to create the account"
}
