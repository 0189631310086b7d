// Package apierror renders engine errors as JSON error responses.
package apierror

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/engine"
)

// Status returns the HTTP status code for an engine error kind.
// Errors without a kind are internal errors.
func Status(err error) int {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, engine.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Write aborts the request with the status and public message of err.
// Internal errors are logged and answered with the fallback message.
func Write(c *gin.Context, err error, fallback string) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Error(fallback, "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": fallback})
		return
	}

	msg, ok := engine.PublicMessage(err)
	if !ok {
		msg = fallback
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
