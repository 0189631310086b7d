package models

import (
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/database"
	"github.com/jon4hz/humanorai/internal/engine"
	"github.com/jon4hz/humanorai/internal/gravatar"
	"github.com/samber/lo"
)

// ToUserSummary converts a database.User to the public owner summary.
func ToUserSummary(u database.User, cfg *config.GravatarConfig) *UserSummary {
	if u.ID == "" {
		return nil
	}
	return &UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Image: gravatar.URL(u.Email, cfg),
	}
}

// ToUserResponse converts a database.User, leaving out the password hash.
func ToUserResponse(u database.User, cfg *config.GravatarConfig) UserResponse {
	resp := UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Image: gravatar.URL(u.Email, cfg),
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = &u.CreatedAt
	}
	return resp
}

// PrincipalResponse converts the request principal.
func PrincipalResponse(u *User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Image: u.GravatarURL,
	}
}

// ToVote converts a database.Vote. Anonymous votes are reported with the anonymous user id.
func ToVote(v database.Vote) Vote {
	return Vote{
		ID:        v.ID,
		ContentID: v.ContentID,
		UserID:    engine.VoteUserID(&v),
		Vote:      v.GuessedAI,
		CreatedAt: v.CreatedAt,
	}
}

// ToContent converts a database.Content with its owner and votes.
func ToContent(c database.Content, cfg *config.GravatarConfig) Content {
	return Content{
		ID:          c.ID,
		Title:       c.Title,
		ContentType: c.ContentType,
		Content:     c.Content,
		IsAI:        c.IsAI,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		User:        ToUserSummary(c.User, cfg),
		Votes: lo.Map(c.Votes, func(v database.Vote, _ int) Vote {
			return ToVote(v)
		}),
	}
}

// ToContentListItem converts a listed content item. Listings carry the vote count instead of the votes.
func ToContentListItem(c database.Content, cfg *config.GravatarConfig) Content {
	item := ToContent(c, cfg)
	item.Votes = nil
	item.Count = &ContentCount{Votes: c.VoteCount}
	return item
}

// NewPageMeta builds the pagination metadata of a listing.
func NewPageMeta(total int64, page, limit int) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageMeta{
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// ToContentList converts a page of content items.
func ToContentList(p *engine.ContentPage, cfg *config.GravatarConfig) ContentList {
	return ContentList{
		Data: lo.Map(p.Items, func(c database.Content, _ int) Content {
			return ToContentListItem(c, cfg)
		}),
		Meta: NewPageMeta(p.Total, p.Page, p.Limit),
	}
}

// ToUserList converts a page of users.
func ToUserList(p *engine.UserPage, cfg *config.GravatarConfig) UserList {
	return UserList{
		Data: lo.Map(p.Items, func(u database.User, _ int) UserResponse {
			return ToUserResponse(u, cfg)
		}),
		Meta: NewPageMeta(p.Total, p.Page, p.Limit),
	}
}

// ToTally converts an engine tally.
func ToTally(t *engine.Tally) Tally {
	return Tally{
		ContentID:  t.ContentID,
		AIVotes:    t.AIVotes,
		HumanVotes: t.HumanVotes,
		TotalVotes: t.TotalVotes,
	}
}

// ToResults converts engine results.
func ToResults(r *engine.Results) Results {
	return Results{
		Tally:           ToTally(&r.Tally),
		AIPercentage:    r.AIPercentage,
		HumanPercentage: r.HumanPercentage,
		IsAI:            r.IsAI,
		MajorityCorrect: r.MajorityCorrect,
	}
}

// ToStats converts the engine statistics.
func ToStats(s *engine.Stats) Stats {
	stats := Stats{
		TotalUsers:     s.TotalUsers,
		TotalContents:  s.TotalContents,
		TotalVotes:     s.TotalVotes,
		AnonymousVotes: s.AnonymousVotes,
		LastVoteAt:     s.LastVoteAt,
	}
	if s.Cache != nil {
		stats.Cache = toCacheStats(s.Cache)
	}
	return stats
}

func toCacheStats(s *codec.Stats) *CacheStats {
	return &CacheStats{
		Hits:   s.Hits,
		Misses: s.Miss,
		Sets:   s.SetSuccess,
	}
}
