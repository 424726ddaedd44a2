package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inheritx/internal/audit"
	"inheritx/internal/platform/config"
	"inheritx/internal/platform/postgres"
	"inheritx/internal/platform/redis"
	"inheritx/internal/registry/service"
	"inheritx/internal/registry/store"
)

// backends holds the stores selected by config and the connections behind them.
type backends struct {
	registry service.Store
	audit    audit.Store
	// durableAudit is true when audit events leave the process.
	durableAudit bool

	db    *sql.DB
	redis *redis.Client
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	txTimeout := store.WithTxTimeout(cfg.Registry.TxTimeout)
	switch cfg.Registry.Store {
	case config.StoreMemory:
		return &backends{
			registry: store.NewInMemory(txTimeout),
			audit:    audit.NewInMemoryStore(),
		}, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return &backends{
			registry:     store.NewPostgres(db, txTimeout),
			audit:        audit.NewPostgresStore(db),
			durableAudit: true,
			db:           db,
		}, nil

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b := &backends{
			registry: store.NewRedis(client.Client, txTimeout),
			audit:    audit.NewInMemoryStore(),
			redis:    client,
		}
		// Audit events go to PostgreSQL when a database is configured.
		if cfg.Postgres.URL != "" {
			db, err := postgres.Open(ctx, cfg.Postgres.URL)
			if err != nil {
				_ = client.Close()
				return nil, err
			}
			b.db = db
			b.audit = audit.NewPostgresStore(db)
			b.durableAudit = true
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Registry.Store)
	}
}

func (b *backends) Health(ctx context.Context) error {
	var errs []error
	if b.db != nil {
		if err := b.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if b.redis != nil {
		if err := b.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (b *backends) Close() error {
	var errs []error
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	return errors.Join(errs...)
}
