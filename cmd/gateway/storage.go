package main

import (
	"context"
	"fmt"

	"pix-gateway/config"
	boltStorage "pix-gateway/internal/adapter/storage/boltdb"
	memStorage "pix-gateway/internal/adapter/storage/memory"
	pgStorage "pix-gateway/internal/adapter/storage/postgres"
	"pix-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// storage bundles the repositories of the configured driver.
type storage struct {
	transactions ports.TransactionRepository
	credentials  ports.CredentialRepository
	health       ports.HealthChecker // nil for memory
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("PostgreSQL connected")
		return &storage{
			transactions: pgStorage.NewTransactionRepo(pool),
			credentials:  pgStorage.NewCredentialRepo(pool),
			health:       pgStorage.NewHealthCheck(pool),
			close:        pool.Close,
		}, nil

	case config.StorageDriverBolt:
		db, err := boltStorage.Open(cfg.Bolt.Path, cfg.Bolt.OpenTimeout, log)
		if err != nil {
			return nil, err
		}
		return &storage{
			transactions: boltStorage.NewTransactionRepo(db),
			credentials:  boltStorage.NewCredentialRepo(db),
			health:       boltStorage.NewHealthCheck(db),
			close: func() {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("closing bolt database")
				}
			},
		}, nil

	case config.StorageDriverMemory:
		log.Warn().Msg("memory storage: all state is lost on restart")
		return &storage{
			transactions: memStorage.NewTransactionRepo(),
			credentials:  memStorage.NewCredentialRepo(),
			close:        func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
