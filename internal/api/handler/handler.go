package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/jon4hz/humanorai/internal/api/apierror"
	"github.com/jon4hz/humanorai/internal/api/auth"
	"github.com/jon4hz/humanorai/internal/api/models"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/engine"
	"github.com/jon4hz/humanorai/internal/version"
)

type Handler struct {
	engine *engine.Engine
	config *config.Config
	tokens *auth.TokenProvider
	// anonLimiter limits anonymous votes per client, nil if unlimited.
	anonLimiter *httprate.RateLimiter
}

func New(eng *engine.Engine, cfg *config.Config, tokens *auth.TokenProvider) *Handler {
	return &Handler{
		engine:      eng,
		config:      cfg,
		tokens:      tokens,
		anonLimiter: newAnonymousLimiter(cfg.Votes),
	}
}

// Home reports the service name and version.
func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "humanorai",
		"version": version.Version,
	})
}

// actor converts the request principal for the engine. Anonymous callers give nil.
func actor(c *gin.Context) *engine.Actor {
	user := auth.CurrentUser(c)
	if user == nil {
		return nil
	}
	return &engine.Actor{UserID: user.ID, Role: user.Role}
}

// writeError maps an engine error to its status code. Unexpected errors are logged
// and answered with the generic message of the failed operation.
func writeError(c *gin.Context, err error, fallback string) {
	apierror.Write(c, err, fallback)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// queryInt parses an integer query parameter. Missing or malformed values give 0.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func (h *Handler) gravatar() *config.GravatarConfig {
	return h.config.Gravatar
}

// principalResponse returns the current principal, nil if the request is anonymous.
func principalResponse(c *gin.Context) *models.UserResponse {
	user := auth.CurrentUser(c)
	if user == nil {
		return nil
	}
	resp := models.PrincipalResponse(user)
	return &resp
}
