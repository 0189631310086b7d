package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/api/auth"
	"github.com/jon4hz/humanorai/internal/api/models"
	"github.com/jon4hz/humanorai/internal/engine"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) credentialsEnabled() bool {
	return h.config.Auth != nil && h.config.Auth.Credentials != nil && h.config.Auth.Credentials.Enabled
}

func (h *Handler) registrationEnabled() bool {
	return h.credentialsEnabled() && h.config.Auth.Credentials.AllowRegistration
}

// Register creates a new user account.
func (h *Handler) Register(c *gin.Context) {
	if !h.registrationEnabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Registration is disabled"})
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields")
		return
	}

	user, err := h.engine.Register(c.Request.Context(), engine.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, models.ToUserResponse(*user, h.gravatar()))
}

// Login checks the credentials and starts a session.
func (h *Handler) Login(c *gin.Context) {
	if !h.credentialsEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Credentials login is disabled"})
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := h.engine.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "Failed to log in")
		return
	}

	if err := auth.SaveSession(c, user); err != nil {
		log.Error("failed to save session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	c.JSON(http.StatusOK, models.ToUserResponse(*user, h.gravatar()))
}

// Logout ends the session.
func (h *Handler) Logout(c *gin.Context) {
	if err := auth.ClearSession(c); err != nil {
		log.Error("failed to clear session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the current user's information.
func (h *Handler) Me(c *gin.Context) {
	user := principalResponse(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Token exchanges credentials for a bearer token.
func (h *Handler) Token(c *gin.Context) {
	if h.tokens == nil || !h.credentialsEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Token authentication is disabled"})
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	user, err := h.engine.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "Failed to issue token")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		log.Error("failed to sign token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, models.Token{Token: token, ExpiresAt: expiresAt})
}
