package main

import (
	"context"
	"fmt"
	"strings"

	"hmidash/internal/catalog"
	"hmidash/internal/config"
	"hmidash/internal/logging"
	"hmidash/internal/store"
	"hmidash/internal/store/postgres"
	"hmidash/internal/store/sqlite"
)

// openDB picks the backend from the DSN scheme.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Database.DSN
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database dsn %q: expected sqlite:// or postgres://", dsn)
	}
}

func loadConfig() (*config.ProjectConfig, *logging.Logger, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadCatalog opens the store, reads every configured country and closes
// the store again; the catalog is self-contained.
func loadCatalog(ctx context.Context, cfg *config.ProjectConfig, logger *logging.Logger) (*catalog.Catalog, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return catalog.Load(ctx, db, cfg, logger)
}
