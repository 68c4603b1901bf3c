// Package backend opens the record store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"expense-tracker-server/src/config"
	"expense-tracker-server/src/db"
	"expense-tracker-server/src/db/memory"
	"expense-tracker-server/src/db/mongostore"
	"expense-tracker-server/src/db/postgres"

	"github.com/rs/zerolog/log"
)

// Backend is one opened store connection shared by every request.
type Backend struct {
	Transactions db.TransactionStore
	Users        db.UserStore
	Close        func(ctx context.Context) error
}

func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.DataBackend {
	case config.BackendMongo:
		store, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return &Backend{Transactions: store, Users: store, Close: store.Close}, nil

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("Successfully connected to Postgres")
		store := postgres.NewStore(pool)
		return &Backend{
			Transactions: store,
			Users:        store,
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.BackendMemory:
		log.Warn().Msg("Using in-memory backend, data will not survive a restart")
		store := memory.New()
		return &Backend{
			Transactions: store,
			Users:        store,
			Close:        func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
