package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentType string

const (
	ContentTypeText  ContentType = "TEXT"
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeMusic ContentType = "MUSIC"
	ContentTypeVideo ContentType = "VIDEO"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeText, ContentTypeImage, ContentTypeMusic, ContentTypeVideo:
		return true
	}
	return false
}

// Content is a submitted item together with its ground truth origin.
// Content holds the text itself for TEXT items and a URI otherwise.
type Content struct {
	ID          string      `gorm:"primaryKey;size:36"`
	Title       string      `gorm:"not null"`
	ContentType ContentType `gorm:"not null;index"`
	Content     string      `gorm:"type:text;not null"`
	IsAI        bool        `gorm:"not null;default:false"`
	UserID      string      `gorm:"not null;size:36;index"`
	User        User        `gorm:"constraint:OnDelete:CASCADE;"`
	Votes       []Vote      `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time   `gorm:"index"`
	UpdatedAt   time.Time

	// VoteCount is filled by GetContents.
	VoteCount int64 `gorm:"-"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ContentQuery filters and paginates content listings.
type ContentQuery struct {
	ContentType *ContentType
	Page        int
	PageSize    int
}

// ContentUpdate holds the fields of a partial content update. Nil fields are left untouched.
type ContentUpdate struct {
	Title       *string
	ContentType *ContentType
	Content     *string
	IsAI        *bool
}

func (u ContentUpdate) columns() map[string]any {
	updates := make(map[string]any)
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.ContentType != nil {
		updates["content_type"] = *u.ContentType
	}
	if u.Content != nil {
		updates["content"] = *u.Content
	}
	if u.IsAI != nil {
		updates["is_ai"] = *u.IsAI
	}
	return updates
}

func (c *Client) CreateContent(ctx context.Context, content *Content) error {
	if err := c.db.WithContext(ctx).Omit("User", "Votes").Create(content).Error; err != nil {
		log.Error("failed to create content", "error", err)
		return err
	}
	return nil
}

// GetContentByID returns the content with its owner preloaded. Votes are loaded
// separately with GetVotesByContentID.
func (c *Client) GetContentByID(ctx context.Context, id string) (*Content, error) {
	var content Content
	err := c.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&content).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get content by ID", "error", err)
		}
		return nil, err
	}
	return &content, nil
}

// GetContents returns a page of content, newest first, with owners preloaded and vote counts filled.
func (c *Client) GetContents(ctx context.Context, q ContentQuery) ([]Content, int64, error) {
	var contents []Content
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		if q.ContentType != nil {
			return db.Where("content_type = ?", *q.ContentType)
		}
		return db
	}

	if err := c.db.WithContext(ctx).
		Model(&Content{}).
		Scopes(filter).
		Count(&total).Error; err != nil {
		log.Error("failed to count contents", "error", err)
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PageSize
	if err := c.db.WithContext(ctx).
		Scopes(filter).
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(q.PageSize).
		Find(&contents).Error; err != nil {
		log.Error("failed to get contents", "error", err)
		return nil, 0, err
	}

	if len(contents) == 0 {
		return contents, total, nil
	}

	ids := make([]string, len(contents))
	for i := range contents {
		ids[i] = contents[i].ID
	}

	var counts []struct {
		ContentID string
		Count     int64
	}
	if err := c.db.WithContext(ctx).Model(&Vote{}).
		Select("content_id, COUNT(*) AS count").
		Where("content_id IN ?", ids).
		Group("content_id").
		Scan(&counts).Error; err != nil {
		log.Error("failed to count votes for contents", "error", err)
		return nil, 0, err
	}

	byID := make(map[string]int64, len(counts))
	for _, row := range counts {
		byID[row.ContentID] = row.Count
	}
	for i := range contents {
		contents[i].VoteCount = byID[contents[i].ID]
	}

	return contents, total, nil
}

func (c *Client) UpdateContent(ctx context.Context, id string, update ContentUpdate) (*Content, error) {
	var content Content
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&content).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get content for update", "error", err)
		}
		return nil, err
	}

	if updates := update.columns(); len(updates) > 0 {
		if err := c.db.WithContext(ctx).Model(&content).Updates(updates).Error; err != nil {
			log.Error("failed to update content", "error", err)
			return nil, err
		}
	}

	return c.GetContentByID(ctx, id)
}

// DeleteContent removes the content and all of its votes in one transaction.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", id).Delete(&Vote{}).Error; err != nil {
			log.Error("failed to delete votes of content", "error", err)
			return err
		}
		result := tx.Where("id = ?", id).Delete(&Content{})
		if result.Error != nil {
			log.Error("failed to delete content", "error", result.Error)
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
