package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/database"
	"github.com/jon4hz/humanorai/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Listen:     "127.0.0.1:0",
		SessionKey: "0123456789abcdef0123456789abcdef",
		Cache: &config.CacheConfig{
			Type:     config.CacheTypeMemory,
			TallyTTL: time.Minute,
		},
		Votes: &config.VotesConfig{
			AllowAnonymous: true,
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func admin(id string) *Actor { return &Actor{UserID: id, Role: database.RoleAdmin} }

func regularUser(id string) *Actor { return &Actor{UserID: id, Role: database.RoleUser} }

// EngineTestSuite runs the engine against the in-memory database mock.
type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *mock.MockDB
	engine *Engine

	owner   *database.User
	other   *database.User
	content *database.Content
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = mock.NewMockDB()

	var err error
	s.engine, err = New(testConfig(), s.db)
	s.Require().NoError(err)

	s.owner = &database.User{Name: "Owner", Email: "owner@example.com"}
	s.Require().NoError(s.db.CreateUser(s.ctx, s.owner))
	s.other = &database.User{Name: "Other", Email: "other@example.com"}
	s.Require().NoError(s.db.CreateUser(s.ctx, s.other))

	s.content = &database.Content{
		Title:       "A poem",
		ContentType: database.ContentTypeText,
		Content:     "roses are red",
		IsAI:        true,
		UserID:      s.owner.ID,
	}
	s.Require().NoError(s.db.CreateContent(s.ctx, s.content))
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) TestNew_RequiresDependencies() {
	_, err := New(nil, s.db)
	s.Error(err)
	_, err = New(testConfig(), nil)
	s.Error(err)
}

func (s *EngineTestSuite) TestSubmitVote_MissingFields() {
	_, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID})
	s.ErrorIs(err, ErrValidation)
	msg, ok := PublicMessage(err)
	s.True(ok)
	s.Equal("Missing required fields", msg)

	_, err = s.engine.SubmitVote(s.ctx, nil, VoteRequest{Vote: boolPtr(true)})
	s.ErrorIs(err, ErrValidation)
}

func (s *EngineTestSuite) TestSubmitVote_FalseIsAValidVote() {
	vote, err := s.engine.SubmitVote(s.ctx, regularUser(s.other.ID), VoteRequest{
		ContentID: s.content.ID,
		Vote:      boolPtr(false),
	})
	s.Require().NoError(err)
	s.False(vote.GuessedAI)
	s.Require().NotNil(vote.UserID)
	s.Equal(s.other.ID, *vote.UserID)
}

func (s *EngineTestSuite) TestSubmitVote_UnknownContent() {
	_, err := s.engine.SubmitVote(s.ctx, regularUser(s.other.ID), VoteRequest{
		ContentID: "missing",
		Vote:      boolPtr(true),
	})
	s.ErrorIs(err, ErrNotFound)
	msg, _ := PublicMessage(err)
	s.Equal("Content not found", msg)
}

func (s *EngineTestSuite) TestSubmitVote_Duplicate() {
	actor := regularUser(s.other.ID)
	req := VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)}

	_, err := s.engine.SubmitVote(s.ctx, actor, req)
	s.Require().NoError(err)

	_, err = s.engine.SubmitVote(s.ctx, actor, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(false)})
	s.ErrorIs(err, ErrConflict)
	s.ErrorIs(err, database.ErrDuplicateVote)
	msg, _ := PublicMessage(err)
	s.Equal("User has already voted for this content", msg)

	tally, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(1, tally.TotalVotes)
	s.Equal(1, tally.AIVotes)
}

func (s *EngineTestSuite) TestSubmitVote_AnonymousNotLimited() {
	for range 2 {
		vote, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{
			ContentID: s.content.ID,
			Vote:      boolPtr(true),
			ClientIP:  "192.0.2.1",
		})
		s.Require().NoError(err)
		s.True(vote.IsAnonymous())
		s.Equal(AnonymousUserID, VoteUserID(vote))
		s.Len(vote.VoterHash, 64)
	}

	tally, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(2, tally.TotalVotes)
}

func (s *EngineTestSuite) TestSubmitVote_AnonymousSentinelIsAnonymous() {
	vote, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{
		ContentID: s.content.ID,
		UserID:    strPtr(AnonymousUserID),
		Vote:      boolPtr(false),
	})
	s.Require().NoError(err)
	s.Nil(vote.UserID)
	s.Empty(vote.VoterHash)
}

func (s *EngineTestSuite) TestSubmitVote_AnonymousDisabled() {
	s.engine.cfg.Votes.AllowAnonymous = false

	_, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *EngineTestSuite) TestSubmitVote_ClaimedUserWithoutPrincipal() {
	_, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{
		ContentID: s.content.ID,
		UserID:    strPtr(s.other.ID),
		Vote:      boolPtr(true),
	})
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *EngineTestSuite) TestSubmitVote_OnBehalfOfAnotherUser() {
	_, err := s.engine.SubmitVote(s.ctx, regularUser(s.owner.ID), VoteRequest{
		ContentID: s.content.ID,
		UserID:    strPtr(s.other.ID),
		Vote:      boolPtr(true),
	})
	s.ErrorIs(err, ErrForbidden)

	vote, err := s.engine.SubmitVote(s.ctx, admin("admin-id"), VoteRequest{
		ContentID: s.content.ID,
		UserID:    strPtr(s.other.ID),
		Vote:      boolPtr(true),
	})
	s.Require().NoError(err)
	s.Equal(s.other.ID, *vote.UserID)

	_, err = s.engine.SubmitVote(s.ctx, admin("admin-id"), VoteRequest{
		ContentID: s.content.ID,
		UserID:    strPtr("ghost"),
		Vote:      boolPtr(true),
	})
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestSubmitVote_StoreError() {
	s.db.CreateVoteError = errors.New("disk full")

	_, err := s.engine.SubmitVote(s.ctx, regularUser(s.other.ID), VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.Require().Error(err)
	_, ok := PublicMessage(err)
	s.False(ok)
}

func (s *EngineTestSuite) TestTally_Validation() {
	_, err := s.engine.Tally(s.ctx, "")
	s.ErrorIs(err, ErrValidation)
	msg, _ := PublicMessage(err)
	s.Equal("Content ID is required", msg)

	_, err = s.engine.Tally(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestTally_NoVotes() {
	tally, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(Tally{ContentID: s.content.ID}, *tally)
}

func (s *EngineTestSuite) TestTally_CachedAndInvalidated() {
	_, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(2, s.db.CountVotesCalls)

	_, err = s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(2, s.db.CountVotesCalls, "second tally should be served from cache")

	_, err = s.engine.SubmitVote(s.ctx, regularUser(s.other.ID), VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.Require().NoError(err)

	tally, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(4, s.db.CountVotesCalls)
	s.Equal(1, tally.AIVotes)
}

func (s *EngineTestSuite) TestTally_WithoutCache() {
	cfg := testConfig()
	cfg.Cache.TallyTTL = 0
	e, err := New(cfg, s.db)
	s.Require().NoError(err)
	s.Nil(e.tallies)

	_, err = e.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	_, err = e.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(4, s.db.CountVotesCalls)
}

func (s *EngineTestSuite) TestTally_CountError() {
	s.db.CountVotesError = errors.New("boom")
	_, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Error(err)
}

func (s *EngineTestSuite) TestResults() {
	// 2 AI guesses, 1 human guess on AI content
	for _, guess := range []bool{true, true, false} {
		_, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(guess)})
		s.Require().NoError(err)
	}

	res, err := s.engine.Results(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(3, res.TotalVotes)
	s.Equal(67, res.AIPercentage)
	s.Equal(33, res.HumanPercentage)
	s.True(res.IsAI)
	s.Require().NotNil(res.MajorityCorrect)
	s.True(*res.MajorityCorrect)
}

func (s *EngineTestSuite) TestResults_NoVotes() {
	res, err := s.engine.Results(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Zero(res.AIPercentage)
	s.Zero(res.HumanPercentage)
	s.Nil(res.MajorityCorrect)
}

func (s *EngineTestSuite) TestResetVotes() {
	_, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.Require().NoError(err)
	tally, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(1, tally.TotalVotes)

	deleted, err := s.engine.ResetVotes(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.EqualValues(1, deleted)

	tally, err = s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Zero(tally.TotalVotes)
}

func (s *EngineTestSuite) TestResetVotes_All() {
	_, err := s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(false)})
	s.Require().NoError(err)
	tally, err := s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(1, tally.HumanVotes)

	_, err = s.engine.ResetVotes(s.ctx, "")
	s.Require().NoError(err)

	tally, err = s.engine.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Zero(tally.TotalVotes)
}

// voteWhileCountingDB records a vote the first time the votes are counted,
// between the count and the cache write of the tally.
type voteWhileCountingDB struct {
	*mock.MockDB
	once   sync.Once
	during func()
}

func (d *voteWhileCountingDB) CountVotes(ctx context.Context, contentID string, guessedAI bool) (int64, error) {
	n, err := d.MockDB.CountVotes(ctx, contentID, guessedAI)
	d.once.Do(d.during)
	return n, err
}

func (s *EngineTestSuite) TestTally_VoteDuringCountIsNotCachedStale() {
	db := &voteWhileCountingDB{MockDB: s.db}
	e, err := New(testConfig(), db)
	s.Require().NoError(err)

	var voteErr error
	db.during = func() {
		_, voteErr = e.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	}

	_, err = e.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Require().NoError(voteErr)

	tally, err := e.Tally(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(1, tally.AIVotes)
	s.Equal(1, tally.TotalVotes)
}

func (s *EngineTestSuite) TestListContents() {
	for i := range 3 {
		s.Require().NoError(s.db.CreateContent(s.ctx, &database.Content{
			Title:       "image",
			ContentType: database.ContentTypeImage,
			Content:     "https://example.com/" + string(rune('a'+i)) + ".png",
			UserID:      s.other.ID,
		}))
	}

	page, err := s.engine.ListContents(s.ctx, ListContentsRequest{ContentType: "IMAGE", Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.EqualValues(3, page.Total)
	s.Len(page.Items, 2)
	s.Equal(2, page.TotalPages())
	for _, item := range page.Items {
		s.Equal(database.ContentTypeImage, item.ContentType)
	}

	page, err = s.engine.ListContents(s.ctx, ListContentsRequest{Page: -1, Limit: 1000})
	s.Require().NoError(err)
	s.Equal(1, page.Page)
	s.Equal(MaxPageSize, page.Limit)
	s.EqualValues(4, page.Total)

	_, err = s.engine.ListContents(s.ctx, ListContentsRequest{ContentType: "PODCAST"})
	s.ErrorIs(err, ErrValidation)
}

func (s *EngineTestSuite) TestCreateContent() {
	content, err := s.engine.CreateContent(s.ctx, regularUser(s.other.ID), CreateContentRequest{
		Title:       "song",
		ContentType: "MUSIC",
		Content:     "https://example.com/song.mp3",
		UserID:      s.other.ID,
	})
	s.Require().NoError(err)
	s.False(content.IsAI)
	s.Equal(s.other.ID, content.User.ID)
}

func (s *EngineTestSuite) TestCreateContent_Errors() {
	valid := CreateContentRequest{
		Title:       "song",
		ContentType: "MUSIC",
		Content:     "https://example.com/song.mp3",
		UserID:      s.other.ID,
	}

	tests := []struct {
		name    string
		actor   *Actor
		mutate  func(r *CreateContentRequest)
		kind    error
		message string
	}{
		{"missing title", regularUser(s.other.ID), func(r *CreateContentRequest) { r.Title = "" }, ErrValidation, "Missing required fields"},
		{"missing user", regularUser(s.other.ID), func(r *CreateContentRequest) { r.UserID = "" }, ErrValidation, "Missing required fields"},
		{"invalid type", regularUser(s.other.ID), func(r *CreateContentRequest) { r.ContentType = "PODCAST" }, ErrValidation, "Invalid content type"},
		{"anonymous", nil, func(r *CreateContentRequest) {}, ErrUnauthenticated, "Authentication required"},
		{"other user", regularUser(s.owner.ID), func(r *CreateContentRequest) {}, ErrForbidden, "Cannot create content for another user"},
		{"unknown user", admin("admin-id"), func(r *CreateContentRequest) { r.UserID = "ghost" }, ErrNotFound, "User not found"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := valid
			tt.mutate(&req)
			_, err := s.engine.CreateContent(s.ctx, tt.actor, req)
			s.ErrorIs(err, tt.kind)
			msg, _ := PublicMessage(err)
			s.Equal(tt.message, msg)
		})
	}
}

func (s *EngineTestSuite) TestUpdateContent() {
	updated, err := s.engine.UpdateContent(s.ctx, regularUser(s.owner.ID), s.content.ID, UpdateContentRequest{
		Title: strPtr("A better poem"),
		IsAI:  boolPtr(false),
	})
	s.Require().NoError(err)
	s.Equal("A better poem", updated.Title)
	s.False(updated.IsAI)
	s.Equal("roses are red", updated.Content)
}

func (s *EngineTestSuite) TestUpdateContent_Errors() {
	_, err := s.engine.UpdateContent(s.ctx, regularUser(s.other.ID), s.content.ID, UpdateContentRequest{Title: strPtr("mine now")})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.engine.UpdateContent(s.ctx, regularUser(s.owner.ID), s.content.ID, UpdateContentRequest{ContentType: strPtr("PODCAST")})
	s.ErrorIs(err, ErrValidation)

	_, err = s.engine.UpdateContent(s.ctx, regularUser(s.owner.ID), s.content.ID, UpdateContentRequest{Title: strPtr("  ")})
	s.ErrorIs(err, ErrValidation)

	_, err = s.engine.UpdateContent(s.ctx, admin("admin-id"), "missing", UpdateContentRequest{Title: strPtr("x")})
	s.ErrorIs(err, ErrNotFound)

	_, err = s.engine.UpdateContent(s.ctx, admin("admin-id"), s.content.ID, UpdateContentRequest{Title: strPtr("by admin")})
	s.NoError(err)
}

func (s *EngineTestSuite) TestGetContent_IncludesVotes() {
	_, err := s.engine.SubmitVote(s.ctx, regularUser(s.other.ID), VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.Require().NoError(err)
	_, err = s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(false), ClientIP: "192.0.2.1"})
	s.Require().NoError(err)

	content, err := s.engine.GetContent(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Equal(s.owner.ID, content.User.ID)
	s.Require().Len(content.Votes, 2)
	s.Equal(s.other.ID, VoteUserID(&content.Votes[0]))
	s.True(content.Votes[1].IsAnonymous())
	s.Equal(AnonymousUserID, VoteUserID(&content.Votes[1]))

	s.db.GetVotesByContentIDError = errors.New("boom")
	_, err = s.engine.GetContent(s.ctx, s.content.ID)
	s.Error(err)
	_, ok := PublicMessage(err)
	s.False(ok)
}

func (s *EngineTestSuite) TestDeleteContent_CascadesVotes() {
	_, err := s.engine.SubmitVote(s.ctx, regularUser(s.other.ID), VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.Require().NoError(err)

	s.ErrorIs(s.engine.DeleteContent(s.ctx, regularUser(s.other.ID), s.content.ID), ErrForbidden)
	s.Require().NoError(s.engine.DeleteContent(s.ctx, regularUser(s.owner.ID), s.content.ID))

	_, err = s.engine.GetContent(s.ctx, s.content.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.engine.Tally(s.ctx, s.content.ID)
	s.ErrorIs(err, ErrNotFound)

	votes, err := s.db.GetVotesByContentID(s.ctx, s.content.ID)
	s.Require().NoError(err)
	s.Empty(votes)

	s.ErrorIs(s.engine.DeleteContent(s.ctx, admin("admin-id"), s.content.ID), ErrNotFound)
}

func (s *EngineTestSuite) TestRegisterAndAuthenticate() {
	user, err := s.engine.Register(s.ctx, RegisterRequest{
		Name:     "Alice",
		Email:    " Alice@Example.com ",
		Password: "correct horse",
	})
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
	s.Equal(database.RoleUser, user.Role)
	s.NotEqual("correct horse", user.PasswordHash)

	authed, err := s.engine.Authenticate(s.ctx, "alice@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(user.ID, authed.ID)

	_, err = s.engine.Authenticate(s.ctx, "alice@example.com", "wrong password")
	s.ErrorIs(err, ErrUnauthenticated)
	_, err = s.engine.Authenticate(s.ctx, "nobody@example.com", "correct horse")
	s.ErrorIs(err, ErrUnauthenticated)

	_, err = s.engine.Register(s.ctx, RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "another one"})
	s.ErrorIs(err, ErrConflict)
}

func (s *EngineTestSuite) TestRegister_Validation() {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "12345678"}},
		{"invalid email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "12345678"}},
		{"display name in email", RegisterRequest{Name: "A", Email: "A <a@example.com>", Password: "12345678"}},
		{"short password", RegisterRequest{Name: "A", Email: "a@example.com", Password: "1234567"}},
		{"password too long for bcrypt", RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("x", MaxPasswordLength+8)}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.engine.Register(s.ctx, tt.req)
			s.ErrorIs(err, ErrValidation)
			_, ok := PublicMessage(err)
			s.True(ok)
		})
	}
}

func (s *EngineTestSuite) TestAuthenticate_OIDCUserHasNoPassword() {
	_, err := s.engine.Authenticate(s.ctx, s.owner.Email, "anything")
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *EngineTestSuite) TestGetOrCreateOIDCUser() {
	user, err := s.engine.GetOrCreateOIDCUser(s.ctx, "New@Example.com", "", false)
	s.Require().NoError(err)
	s.Equal("new@example.com", user.Email)
	s.Equal("new@example.com", user.Name)
	s.Equal(database.RoleUser, user.Role)

	again, err := s.engine.GetOrCreateOIDCUser(s.ctx, "new@example.com", "New", true)
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)
	s.Equal(database.RoleAdmin, again.Role)

	// removed from the admin group at the identity provider
	demoted, err := s.engine.GetOrCreateOIDCUser(s.ctx, "new@example.com", "New", false)
	s.Require().NoError(err)
	s.Equal(user.ID, demoted.ID)
	s.Equal(database.RoleUser, demoted.Role)

	_, err = s.engine.GetOrCreateOIDCUser(s.ctx, "  ", "No Email", false)
	s.ErrorIs(err, ErrValidation)
}

func (s *EngineTestSuite) TestEnsureAdmin() {
	cfg := &config.AdminConfig{Email: "admin@example.com", Password: "Admin123!"}

	created, err := s.engine.EnsureAdmin(s.ctx, cfg)
	s.Require().NoError(err)
	s.True(created)

	user, err := s.db.GetUserByEmail(s.ctx, "admin@example.com")
	s.Require().NoError(err)
	s.Equal(database.RoleAdmin, user.Role)
	s.Equal("Administrator", user.Name)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Admin123!")))

	created, err = s.engine.EnsureAdmin(s.ctx, cfg)
	s.Require().NoError(err)
	s.False(created)

	_, err = s.engine.EnsureAdmin(s.ctx, &config.AdminConfig{})
	s.ErrorIs(err, ErrValidation)

	_, err = s.engine.EnsureAdmin(s.ctx, &config.AdminConfig{
		Email:    "root@example.com",
		Password: strings.Repeat("x", MaxPasswordLength+1),
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *EngineTestSuite) TestSetUserRole() {
	_, err := s.engine.SetUserRole(s.ctx, regularUser(s.owner.ID), s.other.ID, "ADMIN")
	s.ErrorIs(err, ErrForbidden)

	_, err = s.engine.SetUserRole(s.ctx, admin(s.owner.ID), s.other.ID, "SUPERUSER")
	s.ErrorIs(err, ErrValidation)

	_, err = s.engine.SetUserRole(s.ctx, admin(s.owner.ID), s.owner.ID, "USER")
	s.ErrorIs(err, ErrValidation)

	_, err = s.engine.SetUserRole(s.ctx, admin(s.owner.ID), "ghost", "ADMIN")
	s.ErrorIs(err, ErrNotFound)

	user, err := s.engine.SetUserRole(s.ctx, admin(s.owner.ID), s.other.ID, "ADMIN")
	s.Require().NoError(err)
	s.Equal(database.RoleAdmin, user.Role)
}

func (s *EngineTestSuite) TestListUsersAndStats() {
	page, err := s.engine.ListUsers(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.EqualValues(2, page.Total)
	s.Require().Len(page.Items, 1)
	s.Equal(s.owner.ID, page.Items[0].ID)

	_, err = s.engine.SubmitVote(s.ctx, nil, VoteRequest{ContentID: s.content.ID, Vote: boolPtr(true)})
	s.Require().NoError(err)

	stats, err := s.engine.Stats(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(2, stats.TotalUsers)
	s.EqualValues(1, stats.TotalContents)
	s.EqualValues(1, stats.TotalVotes)
	s.EqualValues(1, stats.AnonymousVotes)
	s.NotNil(stats.Cache)
}

func TestTallyPercentages(t *testing.T) {
	tests := []struct {
		name      string
		ai, human int
		wantAI    int
		wantHuman int
	}{
		{"no votes", 0, 0, 0, 0},
		{"all ai", 4, 0, 100, 0},
		{"all human", 0, 3, 0, 100},
		{"one third", 1, 2, 33, 67},
		{"even split", 5, 5, 50, 50},
		{"rounds half up", 1, 7, 13, 87},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := Tally{AIVotes: tt.ai, HumanVotes: tt.human, TotalVotes: tt.ai + tt.human}
			ai, human := tally.Percentages()
			assert.Equal(t, tt.wantAI, ai)
			assert.Equal(t, tt.wantHuman, human)
			if tally.TotalVotes > 0 {
				assert.Equal(t, 100, ai+human)
			}
		})
	}
}

func TestActor(t *testing.T) {
	var anon *Actor
	assert.False(t, anon.IsAdmin())
	assert.False(t, anon.canModify("x"))

	require.True(t, admin("a").canModify("b"))
	assert.True(t, regularUser("a").canModify("a"))
	assert.False(t, regularUser("a").canModify("b"))
	assert.False(t, (&Actor{UserID: "a", Role: "ROOT"}).IsAdmin())
}
