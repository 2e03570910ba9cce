package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"farmops/internal/config"
	"farmops/internal/infrastructure/cache"
	"farmops/internal/infrastructure/storage/memory"
	"farmops/internal/infrastructure/storage/postgres"
	"farmops/pkg/logger"
)

// Runtime is a fully wired process: storage, optional catalog cache and
// the domain services on top.
type Runtime struct {
	Config   *config.Config
	Services *Services

	// Pool is nil for the memory driver.
	Pool *postgres.Pool

	redis    *redis.Client
	listener *cache.CatalogListener
}

// RuntimeOptions select optional components.
type RuntimeOptions struct {
	// ListenCatalog starts the LISTEN loop that evicts cached catalog rows.
	ListenCatalog bool
}

// Open builds a Runtime from configuration.
func Open(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	rt := &Runtime{Config: cfg}
	svcOpts := Options{ReconcileConcurrency: cfg.Worker.ReconcileConcurrency}

	if cfg.App.StorageDriver == config.DriverMemory {
		logger.Warn(ctx, "using in-memory storage; data is lost on exit")
		rt.Services = NewServices(NewMemoryStorage(memory.NewStore()), svcOpts)
		return rt, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	rt.Pool = pool

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.Database.StatementTimeout
	txOpts.LockTimeout = cfg.Database.LockTimeout

	if err := postgres.CheckSchema(ctx, pool); err != nil {
		rt.Close()
		return nil, fmt.Errorf("schema check: %w (run `farmctl migrate up`)", err)
	}

	pgOpts := PostgresOptions{Tx: txOpts, IdempotencyTTL: cfg.Idempotency.TTL}
	if cfg.Redis.Enabled() {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			// Lookups fall through to Postgres while Redis is down.
			logger.Warn(ctx, "redis unreachable, catalog cache degraded", "addr", cfg.Redis.Addr, "error", err)
		}
		pgOpts.Catalog = cache.NewCatalogCache(rt.redis, cfg.Redis.TTL)

		if opts.ListenCatalog {
			rt.listener = cache.NewCatalogListener(pool.Pool, pgOpts.Catalog)
			rt.listener.Start(ctx)
		}
	}

	st, err := NewPostgresStorage(pool, pgOpts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Services = NewServices(st, svcOpts)
	return rt, nil
}

// Close releases every resource Open acquired.
func (rt *Runtime) Close() {
	if rt.listener != nil {
		rt.listener.Stop()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}
