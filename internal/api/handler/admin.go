package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/api/models"
)

type setRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers returns a page of users.
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.engine.ListUsers(c.Request.Context(), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, models.ToUserList(page, h.gravatar()))
}

// SetUserRole changes the role of a user.
func (h *Handler) SetUserRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
		badRequest(c, "Role is required")
		return
	}

	user, err := h.engine.SetUserRole(c.Request.Context(), actor(c), c.Param("id"), req.Role)
	if err != nil {
		writeError(c, err, "Failed to update user role")
		return
	}

	c.JSON(http.StatusOK, models.ToUserResponse(*user, h.gravatar()))
}

// Stats returns the store statistics.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch stats")
		return
	}

	c.JSON(http.StatusOK, models.ToStats(stats))
}
