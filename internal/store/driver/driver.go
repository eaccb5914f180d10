// Package driver opens the document store selected by SEED_DRIVER.
package driver

import (
	"context"
	"errors"
	"fmt"

	"toy-catalog/internal/config"
	"toy-catalog/internal/database"
	"toy-catalog/internal/store"
	"toy-catalog/internal/store/firestoredb"
	"toy-catalog/internal/store/memdb"
	"toy-catalog/internal/store/mongodb"
	"toy-catalog/internal/store/postgresdb"

	"go.uber.org/zap"
)

const (
	Firestore = "firestore"
	Postgres  = "postgres"
	Mongo     = "mongo"
	Memory    = "memory"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// Open connects to the configured backend. Nothing is deleted or written
// before Open returns successfully.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.DocumentStore, error) {
	switch cfg.Seed.Driver {
	case Firestore, "":
		client, err := firestoredb.NewConnector(cfg.Firebase, logger).Connect(ctx)
		if err != nil {
			return nil, err
		}
		return firestoredb.New(client), nil

	case Postgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host))
		return postgresdb.New(db), nil

	case Mongo:
		st, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return st, nil

	case Memory:
		logger.Warn("Using in-memory store, nothing will be persisted")
		return memdb.New(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Seed.Driver)
	}
}
