package engine

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/humanorai/internal/cache"
	"github.com/jon4hz/humanorai/internal/database"
	"golang.org/x/sync/errgroup"
)

// AnonymousUserID is reported as the user of votes cast without a user.
const AnonymousUserID = "anonymous"

// VoteRequest is a request to record a vote.
type VoteRequest struct {
	ContentID string
	// UserID is the user the caller claims to vote as. Optional.
	UserID *string
	// Vote is true for an "AI" guess. Nil means the vote is missing.
	Vote *bool
	// ClientIP is used to fingerprint anonymous votes.
	ClientIP string
}

// Tally holds the vote counts of a content item.
type Tally struct {
	ContentID  string `json:"contentId"`
	AIVotes    int    `json:"aiVotes"`
	HumanVotes int    `json:"humanVotes"`
	TotalVotes int    `json:"totalVotes"`
}

// Percentages returns the share of AI and human guesses in whole percent.
// The human share is derived from the AI share so both always add up to 100.
func (t Tally) Percentages() (ai, human int) {
	if t.TotalVotes <= 0 {
		return 0, 0
	}
	ai = int(math.Round(float64(t.AIVotes) / float64(t.TotalVotes) * 100))
	return ai, 100 - ai
}

// Results is a tally together with the ground truth.
type Results struct {
	Tally
	AIPercentage    int
	HumanPercentage int
	IsAI            bool
	// MajorityCorrect is nil while there are no votes.
	MajorityCorrect *bool
}

// SubmitVote records a vote. Identified users may vote once per content item,
// anonymous votes are not limited here.
func (e *Engine) SubmitVote(ctx context.Context, actor *Actor, req VoteRequest) (*database.Vote, error) {
	if req.ContentID == "" || req.Vote == nil {
		return nil, validationError("Missing required fields")
	}

	var userID *string
	switch {
	case actor != nil:
		if req.UserID != nil && *req.UserID != "" && *req.UserID != actor.UserID && !actor.IsAdmin() {
			return nil, newError(ErrForbidden, "Cannot vote on behalf of another user")
		}
		id := actor.UserID
		if req.UserID != nil && *req.UserID != "" && *req.UserID != actor.UserID {
			if _, err := e.db.GetUserByID(ctx, *req.UserID); err != nil {
				if isNotFound(err) {
					return nil, notFoundError("User not found")
				}
				return nil, storeError(ctx, "failed to get user", err)
			}
			id = *req.UserID
		}
		userID = &id
	case req.UserID != nil && *req.UserID != "" && *req.UserID != AnonymousUserID:
		return nil, newError(ErrUnauthenticated, "Authentication required")
	case !e.cfg.AnonymousVotingEnabled():
		return nil, newError(ErrUnauthenticated, "Authentication required")
	}

	if _, err := e.db.GetContentByID(ctx, req.ContentID); err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Content not found")
		}
		return nil, storeError(ctx, "failed to get content", err)
	}

	vote := &database.Vote{
		ContentID: req.ContentID,
		UserID:    userID,
		GuessedAI: *req.Vote,
	}
	if userID == nil {
		vote.VoterHash = e.VoterHash(req.ClientIP)
	}

	if err := e.db.CreateVote(ctx, vote); err != nil {
		if errors.Is(err, database.ErrDuplicateVote) {
			return nil, &Error{Kind: ErrConflict, Message: "User has already voted for this content", Err: err}
		}
		return nil, storeError(ctx, "failed to create vote", err)
	}

	e.invalidateTally(ctx, req.ContentID)
	return vote, nil
}

// Tally counts the AI and human guesses for a content item.
func (e *Engine) Tally(ctx context.Context, contentID string) (*Tally, error) {
	if contentID == "" {
		return nil, validationError("Content ID is required")
	}

	if e.tallies != nil {
		cached, err := e.tallies.Get(ctx, contentID)
		if err == nil {
			return &cached, nil
		}
		if !cache.IsNotFound(err) {
			log.Warn("failed to read tally from cache", "contentID", contentID, "error", err)
		}
	}

	gen := e.tallyGeneration(contentID)

	if _, err := e.db.GetContentByID(ctx, contentID); err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Content not found")
		}
		return nil, storeError(ctx, "failed to get content", err)
	}

	tally, err := e.countVotes(ctx, contentID)
	if err != nil {
		return nil, err
	}

	e.cacheTally(ctx, gen, tally)
	return tally, nil
}

func (e *Engine) tallyGeneration(contentID string) uint64 {
	e.tallyMu.Lock()
	defer e.tallyMu.Unlock()
	return e.tallyEpoch + e.tallyGen[contentID]
}

// cacheTally stores the tally unless it was invalidated after gen was read.
func (e *Engine) cacheTally(ctx context.Context, gen uint64, tally *Tally) {
	if e.tallies == nil {
		return
	}

	e.tallyMu.Lock()
	defer e.tallyMu.Unlock()
	if e.tallyEpoch+e.tallyGen[tally.ContentID] != gen {
		log.Debug("tally changed while counting, not caching", "contentID", tally.ContentID)
		return
	}
	if err := e.tallies.Set(ctx, tally.ContentID, *tally, store.WithExpiration(e.tallyTTL)); err != nil {
		log.Warn("failed to cache tally", "contentID", tally.ContentID, "error", err)
	}
}

func (e *Engine) countVotes(ctx context.Context, contentID string) (*Tally, error) {
	var aiVotes, humanVotes int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		aiVotes, err = e.db.CountVotes(gctx, contentID, true)
		return err
	})
	g.Go(func() error {
		var err error
		humanVotes, err = e.db.CountVotes(gctx, contentID, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(ctx, "failed to count votes", err)
	}

	ai, err := safecast.Convert[int](aiVotes)
	if err != nil {
		return nil, err
	}
	human, err := safecast.Convert[int](humanVotes)
	if err != nil {
		return nil, err
	}

	return &Tally{
		ContentID:  contentID,
		AIVotes:    ai,
		HumanVotes: human,
		TotalVotes: ai + human,
	}, nil
}

// Results returns the tally of a content item with percentages and the ground truth.
func (e *Engine) Results(ctx context.Context, contentID string) (*Results, error) {
	tally, err := e.Tally(ctx, contentID)
	if err != nil {
		return nil, err
	}

	content, err := e.db.GetContentByID(ctx, contentID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Content not found")
		}
		return nil, storeError(ctx, "failed to get content", err)
	}

	ai, human := tally.Percentages()
	results := &Results{
		Tally:           *tally,
		AIPercentage:    ai,
		HumanPercentage: human,
		IsAI:            content.IsAI,
	}
	if tally.TotalVotes > 0 {
		correct := (ai > 50 && content.IsAI) || (human > 50 && !content.IsAI)
		results.MajorityCorrect = &correct
	}
	return results, nil
}

// ResetVotes deletes the votes of a content item, or all votes if contentID is empty.
func (e *Engine) ResetVotes(ctx context.Context, contentID string) (int64, error) {
	deleted, err := e.db.DeleteVotes(ctx, contentID)
	if err != nil {
		return 0, storeError(ctx, "failed to delete votes", err)
	}

	if contentID != "" {
		e.invalidateTally(ctx, contentID)
	} else {
		e.invalidateAllTallies(ctx)
	}
	return deleted, nil
}

func (e *Engine) invalidateTally(ctx context.Context, contentID string) {
	if e.tallies == nil {
		return
	}

	e.tallyMu.Lock()
	defer e.tallyMu.Unlock()
	e.tallyGen[contentID]++
	if err := e.tallies.Delete(ctx, contentID); err != nil {
		log.Warn("failed to invalidate cached tally", "contentID", contentID, "error", err)
	}
}

// invalidateAllTallies drops every cached tally, used after a bulk reset.
func (e *Engine) invalidateAllTallies(ctx context.Context) {
	if e.tallies == nil {
		return
	}

	e.tallyMu.Lock()
	defer e.tallyMu.Unlock()
	e.tallyEpoch++
	if err := e.tallies.Clear(ctx); err != nil {
		log.Warn("failed to clear tally cache", "error", err)
	}
}

// VoterHash returns a keyed hash of a client address, empty if the address is unknown.
func (e *Engine) VoterHash(ip string) string {
	if ip == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(e.cfg.SessionKey))
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// VoteUserID returns the user of a vote as reported to clients.
func VoteUserID(v *database.Vote) string {
	if v.IsAnonymous() {
		return AnonymousUserID
	}
	return *v.UserID
}
