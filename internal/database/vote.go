package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is a single guess about the origin of a content item.
// A nil UserID marks an anonymous vote. Unique indexes never treat NULLs as equal,
// so idx_vote_content_user only limits identified users to one vote per content.
type Vote struct {
	ID        string  `gorm:"primaryKey;size:36"`
	ContentID string  `gorm:"not null;size:36;uniqueIndex:idx_vote_content_user"`
	UserID    *string `gorm:"size:36;uniqueIndex:idx_vote_content_user"`
	// GuessedAI is true for an "AI" guess and false for a "human" guess.
	GuessedAI bool `gorm:"column:vote;not null"`
	// VoterHash is a keyed hash of the client address of an anonymous voter.
	VoterHash string `gorm:"size:64;index"`
	CreatedAt time.Time
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// IsAnonymous reports whether the vote was cast without a user.
func (v *Vote) IsAnonymous() bool {
	return v.UserID == nil
}

// CreateVote inserts the vote. The unique index is the duplicate check,
// a violation is returned as ErrDuplicateVote.
func (c *Client) CreateVote(ctx context.Context, vote *Vote) error {
	if err := c.db.WithContext(ctx).Create(vote).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		log.Error("failed to create vote", "error", err)
		return err
	}
	return nil
}

func (c *Client) CountVotes(ctx context.Context, contentID string, guessedAI bool) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&Vote{}).
		Where("content_id = ? AND vote = ?", contentID, guessedAI).
		Count(&count).Error; err != nil {
		log.Error("failed to count votes", "error", err)
		return 0, err
	}
	return count, nil
}

func (c *Client) GetVotesByContentID(ctx context.Context, contentID string) ([]Vote, error) {
	var votes []Vote
	if err := c.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at ASC").
		Find(&votes).Error; err != nil {
		log.Error("failed to get votes by content ID", "error", err)
		return nil, err
	}
	return votes, nil
}

// DeleteVotes removes all votes of a content item, or every vote if contentID is empty.
func (c *Client) DeleteVotes(ctx context.Context, contentID string) (int64, error) {
	query := c.db.WithContext(ctx)
	if contentID != "" {
		query = query.Where("content_id = ?", contentID)
	} else {
		query = query.Where("1 = 1")
	}
	result := query.Delete(&Vote{})
	if result.Error != nil {
		log.Error("failed to delete votes", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
