package database

import (
	"context"
	"time"
)

// DB defines the persistence operations used by the engine.
type DB interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUsers(ctx context.Context, page, pageSize int) ([]User, int64, error)
	UpdateUserRole(ctx context.Context, id string, role Role) (*User, error)

	// Content
	CreateContent(ctx context.Context, content *Content) error
	GetContentByID(ctx context.Context, id string) (*Content, error)
	GetContents(ctx context.Context, query ContentQuery) ([]Content, int64, error)
	UpdateContent(ctx context.Context, id string, update ContentUpdate) (*Content, error)
	DeleteContent(ctx context.Context, id string) error

	// Votes
	CreateVote(ctx context.Context, vote *Vote) error
	CountVotes(ctx context.Context, contentID string, guessedAI bool) (int64, error)
	GetVotesByContentID(ctx context.Context, contentID string) ([]Vote, error)
	DeleteVotes(ctx context.Context, contentID string) (int64, error)

	// Statistics
	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}

// Stats provides overall statistics about the store.
type Stats struct {
	TotalUsers     int64      `json:"totalUsers"`
	TotalContents  int64      `json:"totalContents"`
	TotalVotes     int64      `json:"totalVotes"`
	AnonymousVotes int64      `json:"anonymousVotes"`
	LastVoteAt     *time.Time `json:"lastVoteAt,omitempty"`
}
