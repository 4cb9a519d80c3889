package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFMiddleware creates a Gin middleware for CSRF protection on form
// submissions. Safe HTTP methods (GET, HEAD, OPTIONS, TRACE) pass through
// unchecked per gorilla/csrf defaults.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Store the CSRF token in the context for templates.
			// Session middleware runs after this, so session context is
			// added on top of the CSRF request context.
			c.Set("csrf_token", csrf.Token(r))
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// csrfErrorHandler handles CSRF validation failures by sending the user back
// to the page they came from.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	referer := r.Referer()
	if referer != "" {
		separator := "?"
		if strings.Contains(referer, "?") {
			separator = "&"
		}
		http.Redirect(w, r, referer+separator+"error=Session+expired.+Please+try+again.", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Session Expired</title></head>
<body style="font-family: system-ui; max-width: 400px; margin: 100px auto; text-align: center;">
<h1>Session Expired</h1>
<p>Your session has expired or the form submission was invalid.</p>
<p><a href="javascript:history.back()">Go back and try again</a></p>
</body>
</html>`))
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get("csrf_token"); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
