package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/database"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is the most bcrypt can hash.
	MaxPasswordLength = 72
)

// RegisterRequest is a request to create a credentials user.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// UserPage is one page of the user listing.
type UserPage struct {
	Items []database.User
	Total int64
	Page  int
	Limit int
}

// Stats combines the store statistics with the tally cache statistics.
type Stats struct {
	*database.Stats
	Cache *codec.Stats
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return validationError(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	case len(password) > MaxPasswordLength:
		return validationError(fmt.Sprintf("Password must be at most %d bytes long", MaxPasswordLength))
	}
	return nil
}

// Register creates a new user with the USER role.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*database.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, validationError("Missing required fields")
	}
	if err := e.validate.Var(email, "required,email"); err != nil {
		return nil, validationError("Invalid email address")
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         database.RoleUser,
	}
	if err := e.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, &Error{Kind: ErrConflict, Message: "User with this email already exists", Err: err}
		}
		return nil, storeError(ctx, "failed to create user", err)
	}

	log.Info("user registered", "id", user.ID, "email", user.Email)
	return user, nil
}

// Authenticate checks the credentials of a user.
// Unknown users and wrong passwords give the same error.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password are required")
	}

	user, err := e.db.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, newError(ErrUnauthenticated, "Invalid credentials")
		}
		return nil, storeError(ctx, "failed to get user", err)
	}

	// OIDC users have no password
	if user.PasswordHash == "" {
		return nil, newError(ErrUnauthenticated, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, newError(ErrUnauthenticated, "Invalid credentials")
	}
	return user, nil
}

// GetOrCreateOIDCUser returns the user with the given email, creating it on first login.
// The role follows the identity provider on every login.
func (e *Engine) GetOrCreateOIDCUser(ctx context.Context, email, name string, admin bool) (*database.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationError("Identity provider did not return an email address")
	}

	role := database.RoleUser
	if admin {
		role = database.RoleAdmin
	}

	user, err := e.db.GetUserByEmail(ctx, email)
	if err == nil {
		if user.Role != role {
			return e.db.UpdateUserRole(ctx, user.ID, role)
		}
		return user, nil
	}
	if !isNotFound(err) {
		return nil, storeError(ctx, "failed to get user", err)
	}

	if strings.TrimSpace(name) == "" {
		name = email
	}
	user = &database.User{
		Name:  name,
		Email: email,
		Role:  role,
	}
	if err := e.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			// lost a race against a concurrent first login
			return e.db.GetUserByEmail(ctx, email)
		}
		return nil, storeError(ctx, "failed to create user", err)
	}

	log.Info("user created from identity provider", "id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

// EnsureAdmin creates the configured administrator if no user with that email exists.
// It reports whether a user was created.
func (e *Engine) EnsureAdmin(ctx context.Context, cfg *config.AdminConfig) (bool, error) {
	if cfg == nil || cfg.Email == "" {
		return false, validationError("Admin email is not configured")
	}

	email := normalizeEmail(cfg.Email)
	existing, err := e.db.GetUserByEmail(ctx, email)
	if err == nil {
		log.Info("admin user already exists", "email", existing.Email, "role", existing.Role)
		return false, nil
	}
	if !isNotFound(err) {
		return false, storeError(ctx, "failed to get user", err)
	}

	if err := checkPassword(cfg.Password); err != nil {
		return false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	admin := &database.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         database.RoleAdmin,
	}
	if err := e.db.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return false, nil
		}
		return false, storeError(ctx, "failed to create admin user", err)
	}

	log.Info("admin user created", "id", admin.ID, "email", admin.Email)
	return true, nil
}

// GetUser returns a user by id.
func (e *Engine) GetUser(ctx context.Context, id string) (*database.User, error) {
	user, err := e.db.GetUserByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("User not found")
		}
		return nil, storeError(ctx, "failed to get user", err)
	}
	return user, nil
}

// ListUsers returns a page of users, oldest first.
func (e *Engine) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	page, limit = NormalizePagination(page, limit)
	users, total, err := e.db.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, storeError(ctx, "failed to list users", err)
	}
	return &UserPage{
		Items: users,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// SetUserRole changes the role of a user. Admins cannot demote themselves.
func (e *Engine) SetUserRole(ctx context.Context, actor *Actor, id, role string) (*database.User, error) {
	if !actor.IsAdmin() {
		return nil, newError(ErrForbidden, "Forbidden")
	}
	r, err := database.ParseRole(role)
	if err != nil {
		return nil, validationError("Invalid role")
	}
	if id == actor.UserID && r != database.RoleAdmin {
		return nil, validationError("Cannot remove your own admin role")
	}

	user, err := e.db.UpdateUserRole(ctx, id, r)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("User not found")
		}
		return nil, storeError(ctx, "failed to update user role", err)
	}

	log.Info("user role changed", "id", user.ID, "role", user.Role, "by", actor.UserID)
	return user, nil
}

// Stats returns the store statistics and, if enabled, the tally cache statistics.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stats, err := e.db.GetStats(ctx)
	if err != nil {
		return nil, storeError(ctx, "failed to get stats", err)
	}
	s := &Stats{Stats: stats}
	if e.tallies != nil {
		s.Cache = e.tallies.GetStats()
	}
	return s, nil
}
