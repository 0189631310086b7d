package models

import (
	"time"

	"github.com/jon4hz/humanorai/internal/database"
)

// User is the authenticated principal of a request.
type User struct {
	ID          string
	Email       string
	Name        string
	Role        database.Role
	GravatarURL string
}

// IsAdmin reports whether the principal has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == database.RoleAdmin
}

// UserSummary is the public view of a content owner.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// UserResponse is the full view of a user, shown to the user itself and to admins.
type UserResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      database.Role `json:"role"`
	Image     string        `json:"image,omitempty"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
}

// Content is a content item as returned by the API.
type Content struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	ContentType database.ContentType `json:"contentType"`
	Content     string               `json:"content"`
	IsAI        bool                 `json:"isAI"`
	UserID      string               `json:"userId"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	User        *UserSummary         `json:"user,omitempty"`
	Votes       []Vote               `json:"votes,omitempty"`
	Count       *ContentCount        `json:"_count,omitempty"`
}

// ContentCount holds the aggregate counts of a listed content item.
type ContentCount struct {
	Votes int64 `json:"votes"`
}

// Vote is a recorded vote. UserID is "anonymous" for anonymous votes.
type Vote struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	UserID    string    `json:"userId"`
	Vote      bool      `json:"vote"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tally is the vote count of a content item.
type Tally struct {
	ContentID  string `json:"contentId"`
	AIVotes    int    `json:"aiVotes"`
	HumanVotes int    `json:"humanVotes"`
	TotalVotes int    `json:"totalVotes"`
}

// Results is a tally with percentages and the ground truth.
type Results struct {
	Tally
	AIPercentage    int   `json:"aiPercentage"`
	HumanPercentage int   `json:"humanPercentage"`
	IsAI            bool  `json:"isAI"`
	MajorityCorrect *bool `json:"majorityCorrect"`
}

// PageMeta describes the pagination of a listing.
type PageMeta struct {
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// ContentList is a page of content items.
type ContentList struct {
	Data []Content `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// UserList is a page of users.
type UserList struct {
	Data []UserResponse `json:"data"`
	Meta PageMeta       `json:"meta"`
}

// CacheStats holds the tally cache counters.
type CacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
	Sets   int `json:"sets"`
}

// Stats is the admin overview of the store.
type Stats struct {
	TotalUsers     int64       `json:"totalUsers"`
	TotalContents  int64       `json:"totalContents"`
	TotalVotes     int64       `json:"totalVotes"`
	AnonymousVotes int64       `json:"anonymousVotes"`
	LastVoteAt     *time.Time  `json:"lastVoteAt,omitempty"`
	Cache          *CacheStats `json:"cache,omitempty"`
}

// Token is an issued bearer token.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
