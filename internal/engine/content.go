package engine

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/humanorai/internal/database"
	"github.com/samber/lo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListContentsRequest filters and paginates a content listing.
type ListContentsRequest struct {
	ContentType string
	Page        int
	Limit       int
}

// ContentPage is one page of a content listing.
type ContentPage struct {
	Items []database.Content
	Total int64
	Page  int
	Limit int
}

// TotalPages returns the number of pages for the listing.
func (p *ContentPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// CreateContentRequest is a request to submit a new content item.
type CreateContentRequest struct {
	Title       string
	ContentType string
	Content     string
	UserID      string
	IsAI        *bool
}

// UpdateContentRequest is a partial update of a content item. Nil fields are left untouched.
type UpdateContentRequest struct {
	Title       *string
	ContentType *string
	Content     *string
	IsAI        *bool
}

// NormalizePagination applies the default page and page size and caps the page size.
func NormalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// ListContents returns a page of content items, newest first.
func (e *Engine) ListContents(ctx context.Context, req ListContentsRequest) (*ContentPage, error) {
	page, limit := NormalizePagination(req.Page, req.Limit)

	query := database.ContentQuery{Page: page, PageSize: limit}
	if req.ContentType != "" {
		ct := database.ContentType(req.ContentType)
		if !ct.Valid() {
			return nil, validationError("Invalid content type")
		}
		query.ContentType = &ct
	}

	items, total, err := e.db.GetContents(ctx, query)
	if err != nil {
		return nil, storeError(ctx, "failed to list contents", err)
	}

	return &ContentPage{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// GetContent returns a content item with its owner and votes.
func (e *Engine) GetContent(ctx context.Context, id string) (*database.Content, error) {
	if id == "" {
		return nil, validationError("Content ID is required")
	}
	content, err := e.db.GetContentByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Content not found")
		}
		return nil, storeError(ctx, "failed to get content", err)
	}

	votes, err := e.db.GetVotesByContentID(ctx, id)
	if err != nil {
		return nil, storeError(ctx, "failed to get votes", err)
	}
	content.Votes = votes
	return content, nil
}

// CreateContent stores a new content item owned by req.UserID.
func (e *Engine) CreateContent(ctx context.Context, actor *Actor, req CreateContentRequest) (*database.Content, error) {
	if req.Title == "" || req.ContentType == "" || req.Content == "" || req.UserID == "" {
		return nil, validationError("Missing required fields")
	}

	ct := database.ContentType(req.ContentType)
	if !ct.Valid() {
		return nil, validationError("Invalid content type")
	}

	if actor == nil {
		return nil, newError(ErrUnauthenticated, "Authentication required")
	}
	if !actor.canModify(req.UserID) {
		return nil, newError(ErrForbidden, "Cannot create content for another user")
	}

	if _, err := e.db.GetUserByID(ctx, req.UserID); err != nil {
		if isNotFound(err) {
			return nil, notFoundError("User not found")
		}
		return nil, storeError(ctx, "failed to get user", err)
	}

	content := &database.Content{
		Title:       req.Title,
		ContentType: ct,
		Content:     req.Content,
		UserID:      req.UserID,
	}
	if req.IsAI != nil {
		content.IsAI = *req.IsAI
	}

	if err := e.db.CreateContent(ctx, content); err != nil {
		return nil, storeError(ctx, "failed to create content", err)
	}

	log.Info("content created", "id", content.ID, "type", content.ContentType, "user", content.UserID)

	// reload to return the owner with the new item
	return e.GetContent(ctx, content.ID)
}

// UpdateContent applies a partial update. Only the owner or an admin may update a content item.
func (e *Engine) UpdateContent(ctx context.Context, actor *Actor, id string, req UpdateContentRequest) (*database.Content, error) {
	if id == "" {
		return nil, validationError("Content ID is required")
	}

	update := database.ContentUpdate{IsAI: req.IsAI}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, validationError("Title must not be empty")
		}
		update.Title = req.Title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, validationError("Content must not be empty")
		}
		update.Content = req.Content
	}
	if req.ContentType != nil {
		ct := database.ContentType(*req.ContentType)
		if !ct.Valid() {
			return nil, validationError("Invalid content type")
		}
		update.ContentType = &ct
	}

	existing, err := e.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, newError(ErrUnauthenticated, "Authentication required")
	}
	if !actor.canModify(existing.UserID) {
		return nil, newError(ErrForbidden, "Forbidden")
	}

	content, err := e.db.UpdateContent(ctx, id, update)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Content not found")
		}
		return nil, storeError(ctx, "failed to update content", err)
	}

	// the ground truth may have changed
	e.invalidateTally(ctx, id)
	return content, nil
}

// DeleteContent deletes a content item and all of its votes.
// Only the owner or an admin may delete a content item.
func (e *Engine) DeleteContent(ctx context.Context, actor *Actor, id string) error {
	existing, err := e.GetContent(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil {
		return newError(ErrUnauthenticated, "Authentication required")
	}
	if !actor.canModify(existing.UserID) {
		return newError(ErrForbidden, "Forbidden")
	}

	if err := e.db.DeleteContent(ctx, id); err != nil {
		if isNotFound(err) {
			return notFoundError("Content not found")
		}
		return storeError(ctx, "failed to delete content", err)
	}

	anonymous := lo.CountBy(existing.Votes, func(v database.Vote) bool { return v.IsAnonymous() })
	log.Info("content deleted", "id", id, "votes", len(existing.Votes), "anonymousVotes", anonymous)
	e.invalidateTally(ctx, id)
	return nil
}
