package mock

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jon4hz/humanorai/internal/database"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	users    map[string]*database.User
	contents map[string]*database.Content
	votes    map[string]*database.Vote
	clock    time.Time

	// Error simulation
	CreateUserError          error
	GetUserByIDError         error
	GetUserByEmailError      error
	GetUsersError            error
	UpdateUserRoleError      error
	CreateContentError       error
	GetContentByIDError      error
	GetContentsError         error
	UpdateContentError       error
	DeleteContentError       error
	CreateVoteError          error
	CountVotesError          error
	GetVotesByContentIDError error
	DeleteVotesError         error
	GetStatsError            error

	// CountVotesCalls counts calls to CountVotes, for cache assertions.
	CountVotesCalls int
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[string]*database.User)
	m.contents = make(map[string]*database.Content)
	m.votes = make(map[string]*database.Vote)

	m.CreateUserError = nil
	m.GetUserByIDError = nil
	m.GetUserByEmailError = nil
	m.GetUsersError = nil
	m.UpdateUserRoleError = nil
	m.CreateContentError = nil
	m.GetContentByIDError = nil
	m.GetContentsError = nil
	m.UpdateContentError = nil
	m.DeleteContentError = nil
	m.CreateVoteError = nil
	m.CountVotesError = nil
	m.GetVotesByContentIDError = nil
	m.DeleteVotesError = nil
	m.GetStatsError = nil
	m.CountVotesCalls = 0
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = database.RoleUser
	}
	now := m.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id string) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	user := *u
	return &user, nil
}

func (m *MockDB) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	if m.GetUserByEmailError != nil {
		return nil, m.GetUserByEmailError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetUsers(ctx context.Context, page, pageSize int) ([]database.User, int64, error) {
	if m.GetUsersError != nil {
		return nil, 0, m.GetUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	slices.SortFunc(users, func(a, b database.User) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return paginate(users, page, pageSize), int64(len(users)), nil
}

func (m *MockDB) UpdateUserRole(ctx context.Context, id string, role database.Role) (*database.User, error) {
	if m.UpdateUserRoleError != nil {
		return nil, m.UpdateUserRoleError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.Role = role
	u.UpdatedAt = m.now()
	user := *u
	return &user, nil
}

// Content operations

func (m *MockDB) CreateContent(ctx context.Context, content *database.Content) error {
	if m.CreateContentError != nil {
		return m.CreateContentError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	now := m.now()
	content.CreatedAt = now
	content.UpdatedAt = now

	stored := *content
	stored.User = database.User{}
	stored.Votes = nil
	m.contents[content.ID] = &stored
	return nil
}

func (m *MockDB) GetContentByID(ctx context.Context, id string) (*database.Content, error) {
	if m.GetContentByIDError != nil {
		return nil, m.GetContentByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.loadContent(id)
}

// loadContent must be called with the lock held.
func (m *MockDB) loadContent(id string) (*database.Content, error) {
	c, ok := m.contents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	content := *c
	if owner, ok := m.users[content.UserID]; ok {
		content.User = *owner
	}
	return &content, nil
}

func (m *MockDB) GetContents(ctx context.Context, q database.ContentQuery) ([]database.Content, int64, error) {
	if m.GetContentsError != nil {
		return nil, 0, m.GetContentsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	contents := make([]database.Content, 0, len(m.contents))
	for _, c := range m.contents {
		if q.ContentType != nil && c.ContentType != *q.ContentType {
			continue
		}
		content := *c
		if owner, ok := m.users[content.UserID]; ok {
			content.User = *owner
		}
		content.VoteCount = int64(len(m.votesFor(content.ID)))
		contents = append(contents, content)
	}
	slices.SortFunc(contents, func(a, b database.Content) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(contents, q.Page, q.PageSize), int64(len(contents)), nil
}

func (m *MockDB) UpdateContent(ctx context.Context, id string, update database.ContentUpdate) (*database.Content, error) {
	if m.UpdateContentError != nil {
		return nil, m.UpdateContentError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.ContentType != nil {
		c.ContentType = *update.ContentType
	}
	if update.Content != nil {
		c.Content = *update.Content
	}
	if update.IsAI != nil {
		c.IsAI = *update.IsAI
	}
	c.UpdatedAt = m.now()
	return m.loadContent(id)
}

func (m *MockDB) DeleteContent(ctx context.Context, id string) error {
	if m.DeleteContentError != nil {
		return m.DeleteContentError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contents[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for voteID, v := range m.votes {
		if v.ContentID == id {
			delete(m.votes, voteID)
		}
	}
	delete(m.contents, id)
	return nil
}

// Vote operations

func (m *MockDB) CreateVote(ctx context.Context, vote *database.Vote) error {
	if m.CreateVoteError != nil {
		return m.CreateVoteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if vote.UserID != nil {
		for _, v := range m.votes {
			if v.ContentID == vote.ContentID && v.UserID != nil && *v.UserID == *vote.UserID {
				return database.ErrDuplicateVote
			}
		}
	}
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	vote.CreatedAt = m.now()

	stored := *vote
	m.votes[vote.ID] = &stored
	return nil
}

func (m *MockDB) CountVotes(ctx context.Context, contentID string, guessedAI bool) (int64, error) {
	m.mu.Lock()
	m.CountVotesCalls++
	m.mu.Unlock()

	if m.CountVotesError != nil {
		return 0, m.CountVotesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, v := range m.votes {
		if v.ContentID == contentID && v.GuessedAI == guessedAI {
			count++
		}
	}
	return count, nil
}

func (m *MockDB) GetVotesByContentID(ctx context.Context, contentID string) ([]database.Vote, error) {
	if m.GetVotesByContentIDError != nil {
		return nil, m.GetVotesByContentIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.votesFor(contentID), nil
}

// votesFor must be called with the lock held.
func (m *MockDB) votesFor(contentID string) []database.Vote {
	votes := make([]database.Vote, 0)
	for _, v := range m.votes {
		if v.ContentID == contentID {
			votes = append(votes, *v)
		}
	}
	slices.SortFunc(votes, func(a, b database.Vote) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return votes
}

func (m *MockDB) DeleteVotes(ctx context.Context, contentID string) (int64, error) {
	if m.DeleteVotesError != nil {
		return 0, m.DeleteVotesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, v := range m.votes {
		if contentID == "" || v.ContentID == contentID {
			delete(m.votes, id)
			deleted++
		}
	}
	return deleted, nil
}

// Statistics

func (m *MockDB) GetStats(ctx context.Context) (*database.Stats, error) {
	if m.GetStatsError != nil {
		return nil, m.GetStatsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.Stats{
		TotalUsers:    int64(len(m.users)),
		TotalContents: int64(len(m.contents)),
		TotalVotes:    int64(len(m.votes)),
	}
	for _, v := range m.votes {
		if v.UserID == nil {
			stats.AnonymousVotes++
		}
		if stats.LastVoteAt == nil || v.CreatedAt.After(*stats.LastVoteAt) {
			createdAt := v.CreatedAt
			stats.LastVoteAt = &createdAt
		}
	}
	return stats, nil
}

// now returns strictly increasing timestamps so ordering is deterministic.
// It must be called with the lock held.
func (m *MockDB) now() time.Time {
	t := time.Now()
	if !t.After(m.clock) {
		t = m.clock.Add(time.Microsecond)
	}
	m.clock = t
	return t
}

func (m *MockDB) Close() error {
	return nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return items
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
