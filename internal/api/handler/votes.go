package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/jon4hz/humanorai/internal/api/models"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/engine"
)

type submitVoteRequest struct {
	ContentID string  `json:"contentId"`
	UserID    *string `json:"userId"`
	Vote      *bool   `json:"vote"`
}

func newAnonymousLimiter(cfg *config.VotesConfig) *httprate.RateLimiter {
	if cfg == nil || cfg.AnonymousRateLimit <= 0 || cfg.AnonymousRateWindow <= 0 {
		return nil
	}
	return httprate.NewRateLimiter(
		cfg.AnonymousRateLimit,
		cfg.AnonymousRateWindow,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many votes, please try again later"}`))
		}),
	)
}

// GetVotes returns the vote tally of the content given by the contentId query parameter.
func (h *Handler) GetVotes(c *gin.Context) {
	tally, err := h.engine.Tally(c.Request.Context(), c.Query("contentId"))
	if err != nil {
		writeError(c, err, "Failed to fetch votes")
		return
	}

	c.JSON(http.StatusOK, models.ToTally(tally))
}

// SubmitVote records a vote for the principal or, if allowed, an anonymous vote.
func (h *Handler) SubmitVote(c *gin.Context) {
	var req submitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing required fields")
		return
	}

	a := actor(c)
	if a == nil && h.anonLimiter != nil {
		if h.anonLimiter.RespondOnLimit(c.Writer, c.Request, h.engine.VoterHash(c.ClientIP())) {
			c.Abort()
			return
		}
	}

	vote, err := h.engine.SubmitVote(c.Request.Context(), a, engine.VoteRequest{
		ContentID: req.ContentID,
		UserID:    req.UserID,
		Vote:      req.Vote,
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		writeError(c, err, "Failed to create vote")
		return
	}

	c.JSON(http.StatusCreated, models.ToVote(*vote))
}
