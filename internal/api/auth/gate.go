package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/api/models"
	"github.com/jon4hz/humanorai/internal/database"
)

// Decision is the outcome of classifying a request.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
	Unauthorized
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

var publicPaths = map[string]struct{}{
	"/":                       {},
	"/login":                  {},
	"/register":               {},
	"/api/register":           {},
	"/api/auth/login":         {},
	"/api/auth/token":         {},
	"/api/auth/oidc/login":    {},
	"/api/auth/oidc/callback": {},
}

var authPrefixes = []string{
	"/content/create",
	"/api/contents",
	"/api/auth/me",
	"/api/auth/logout",
	"/admin",
	"/api/admin",
}

var adminPrefixes = []string{
	"/admin",
	"/api/admin",
}

// hasPrefix matches prefix as a whole path segment, so /adminx does not match /admin.
func hasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if hasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAPI(path string) bool {
	return hasPrefix(path, "/api")
}

// Classify decides what happens to a request before it reaches a handler.
// The rules are evaluated in order and the first match wins. Public rules come
// before the authentication rules so anonymous visitors can browse content.
func Classify(method, path string, principal *models.User) Decision {
	if _, ok := publicPaths[path]; ok {
		return Allow
	}

	if hasPrefix(path, "/content/") && !strings.Contains(path, "/create") {
		return Allow
	}

	if method == http.MethodGet && hasPrefix(path, "/api/contents") {
		return Allow
	}

	// anonymous votes are accepted or rejected by the vote recorder
	if hasPrefix(path, "/api/votes") {
		return Allow
	}

	if hasAnyPrefix(path, authPrefixes) && principal == nil {
		if isAPI(path) {
			return Unauthorized
		}
		return RedirectLogin
	}

	// every admin prefix is also an auth prefix, principal is set from here on
	if hasAnyPrefix(path, adminPrefixes) {
		switch principal.Role {
		case database.RoleAdmin:
			return Allow
		case database.RoleUser:
			if isAPI(path) {
				return Forbidden
			}
			return RedirectHome
		default:
			if isAPI(path) {
				return Forbidden
			}
			return RedirectHome
		}
	}

	return Allow
}

// apply writes the response for a non allowing decision and aborts the request.
func apply(c *gin.Context, d Decision) {
	switch d {
	case Allow:
		c.Next()
	case RedirectLogin:
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	case RedirectHome:
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	case Unauthorized:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case Forbidden:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// CurrentUser returns the principal of the request, nil for anonymous callers.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
