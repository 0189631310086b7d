package cmd

import (
	"fmt"

	"github.com/jon4hz/humanorai/internal/config"
	"github.com/jon4hz/humanorai/internal/database"
	"github.com/jon4hz/humanorai/internal/engine"
)

// loadEngine loads the config and opens the database and the engine on top of it.
// The caller must close the returned engine.
func loadEngine() (*config.Config, *engine.Engine, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	e, err := engine.New(cfg, db)
	if err != nil {
		db.Close() //nolint:errcheck,gosec
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return cfg, e, nil
}
