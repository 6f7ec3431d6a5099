package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/cli"
	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/logging"
)

// runtime bundles the collaborators every command needs.
type runtime struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *db.Pool
}

func (r *runtime) close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// setupRuntime loads env, config and logging, then connects to the database.
func setupRuntime(envLoader *cli.EnvLoader) (*runtime, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, pool: pool}, nil
}

// documents holds the parsed YAML configuration files.
type documents struct {
	sources []config.SourceConfig
	venues  config.VenueRegistry
	prefs   *config.Preferences
	profile *config.TasteProfile
}

func loadDocuments(dir string) (*documents, error) {
	sources, err := config.LoadSources(dir)
	if err != nil {
		return nil, err
	}
	venues, err := config.LoadVenues(dir)
	if err != nil {
		return nil, err
	}
	prefs, err := config.LoadPreferences(dir)
	if err != nil {
		return nil, err
	}
	profile, err := config.LoadTasteProfile(dir)
	if err != nil {
		return nil, err
	}
	return &documents{sources: sources, venues: venues, prefs: prefs, profile: profile}, nil
}
