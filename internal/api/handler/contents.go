package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/humanorai/internal/api/models"
	"github.com/jon4hz/humanorai/internal/engine"
)

type createContentRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
	UserID      string `json:"userId"`
	IsAI        *bool  `json:"isAI"`
}

type updateContentRequest struct {
	Title       *string `json:"title"`
	ContentType *string `json:"contentType"`
	Content     *string `json:"content"`
	IsAI        *bool   `json:"isAI"`
}

// ListContents returns a page of content items, newest first.
func (h *Handler) ListContents(c *gin.Context) {
	page, err := h.engine.ListContents(c.Request.Context(), engine.ListContentsRequest{
		ContentType: c.Query("contentType"),
		Page:        queryInt(c, "page"),
		Limit:       queryInt(c, "limit"),
	})
	if err != nil {
		writeError(c, err, "Failed to fetch contents")
		return
	}

	c.JSON(http.StatusOK, models.ToContentList(page, h.gravatar()))
}

// GetContent returns a single content item with its owner and votes.
func (h *Handler) GetContent(c *gin.Context) {
	content, err := h.engine.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch content")
		return
	}

	c.JSON(http.StatusOK, models.ToContent(*content, h.gravatar()))
}

// CreateContent submits a new content item.
func (h *Handler) CreateContent(c *gin.Context) {
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields")
		return
	}

	content, err := h.engine.CreateContent(c.Request.Context(), actor(c), engine.CreateContentRequest{
		Title:       req.Title,
		ContentType: req.ContentType,
		Content:     req.Content,
		UserID:      req.UserID,
		IsAI:        req.IsAI,
	})
	if err != nil {
		writeError(c, err, "Failed to create content")
		return
	}

	c.JSON(http.StatusCreated, models.ToContent(*content, h.gravatar()))
}

// UpdateContent applies a partial update to a content item.
func (h *Handler) UpdateContent(c *gin.Context) {
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	content, err := h.engine.UpdateContent(c.Request.Context(), actor(c), c.Param("id"), engine.UpdateContentRequest{
		Title:       req.Title,
		ContentType: req.ContentType,
		Content:     req.Content,
		IsAI:        req.IsAI,
	})
	if err != nil {
		writeError(c, err, "Failed to update content")
		return
	}

	c.JSON(http.StatusOK, models.ToContent(*content, h.gravatar()))
}

// DeleteContent deletes a content item and its votes.
func (h *Handler) DeleteContent(c *gin.Context) {
	if err := h.engine.DeleteContent(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Content deleted successfully"})
}

// GetResults reveals the tally of a content item together with the ground truth.
func (h *Handler) GetResults(c *gin.Context) {
	results, err := h.engine.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to fetch results")
		return
	}

	c.JSON(http.StatusOK, models.ToResults(results))
}
