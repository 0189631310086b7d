package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/jon4hz/humanorai/internal/cache"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/database"
	"gorm.io/gorm"
)

const tallyCachePrefix = "tally-"

// Engine holds the voting and content rules on top of the database.
type Engine struct {
	cfg      *config.Config
	db       database.DB
	tallies  *cache.PrefixedCache[Tally]
	tallyTTL time.Duration
	validate *validator.Validate

	// tallyGen and tallyEpoch are bumped on invalidation so that a tally
	// counted before a vote is never written to the cache after it.
	tallyMu    sync.Mutex
	tallyGen   map[string]uint64
	tallyEpoch uint64
}

// New creates a new engine.
func New(cfg *config.Config, db database.DB) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	e := &Engine{
		cfg:      cfg,
		db:       db,
		validate: validator.New(),
		tallyGen: make(map[string]uint64),
	}

	if cfg.Cache != nil && cfg.Cache.TallyTTL > 0 {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		e.tallies = cache.NewPrefixedCache[Tally](c, cfg.Cache.Type, tallyCachePrefix)
		e.tallyTTL = cfg.Cache.TallyTTL
	}

	return e, nil
}

// Close releases the resources held by the engine.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Actor is the caller on whose behalf an operation runs.
// A nil *Actor is an anonymous caller.
type Actor struct {
	UserID string
	Role   database.Role
}

// IsAdmin reports whether the actor has the admin role.
func (a *Actor) IsAdmin() bool {
	if a == nil {
		return false
	}
	switch a.Role {
	case database.RoleAdmin:
		return true
	case database.RoleUser:
		return false
	default:
		return false
	}
}

// canModify reports whether the actor may change a resource owned by ownerID.
func (a *Actor) canModify(ownerID string) bool {
	if a == nil {
		return false
	}
	return a.IsAdmin() || a.UserID == ownerID
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// storeError wraps an unexpected database error so the handler reports it as a server error.
func storeError(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil {
		log.Debug("request cancelled", "operation", msg, "error", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
