package http

import (
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/auth"
)

// htmlData merges the keys every page needs (identity, CSRF token, flash
// messages from the query string) with handler-specific data.
func htmlData(c *gin.Context, data gin.H) gin.H {
	merged := gin.H{
		"LoggedIn":  auth.GetUserID(c) != 0,
		"Username":  auth.GetUsername(c),
		"IsAdmin":   auth.IsAdmin(c),
		"CSRFToken": auth.GetCSRFToken(c),
	}
	if msg := c.Query("success"); msg != "" {
		merged["Success"] = msg
	}
	if msg := c.Query("error"); msg != "" {
		merged["Error"] = msg
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged
}

// redirectWithError sends the browser back to a listing page with a flash
// message in the query string, matching the form-over-database flow.
func redirectWithError(c *gin.Context, path, message string) {
	c.Redirect(http.StatusFound, path+"?error="+url.QueryEscape(message))
}

// redirectWithSuccess is the happy-path counterpart of redirectWithError.
func redirectWithSuccess(c *gin.Context, path, message string) {
	c.Redirect(http.StatusFound, path+"?success="+url.QueryEscape(message))
}

// respondInternalError logs the error and renders a plain 500. The
// underlying cause is logged but never exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.String(http.StatusInternalServerError, "internal server error")
}

// parseIDParam extracts and validates an unsigned integer ID from URL
// parameters. Returns the parsed ID or responds with a 400 error and
// returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseFormID extracts and validates an unsigned integer ID from a posted
// form field.
func parseFormID(c *gin.Context, field string) (uint, bool) {
	idStr := c.PostForm(field)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
