// Package backend builds the store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"

	"fintrack-server/src/config"
	"fintrack-server/src/db"
	pgstore "fintrack-server/src/db/sql"
	"fintrack-server/src/logger"
	"fintrack-server/src/store"
	"fintrack-server/src/store/docstore"
)

// Open returns the configured store. The caller owns it and must Close it.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	log = log.WithComponent(logger.ComponentStorage)

	switch cfg.DataBackend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("initialized postgres backend", logger.FieldBackend, cfg.DataBackend)
		return pgstore.NewStore(pool), nil

	case config.BackendDocstore:
		s := docstore.New(cfg.DocstorePath)
		if err := s.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		log.Info("initialized document store backend", logger.FieldBackend, cfg.DataBackend, "path", cfg.DocstorePath)
		return s, nil

	case config.BackendMemory:
		log.Warn("using in-memory backend; data is lost on restart", logger.FieldBackend, cfg.DataBackend)
		return store.NewMemory(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}
