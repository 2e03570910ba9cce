package app

import (
	"context"
	"fmt"
	"time"

	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/infrastructure/cache"
	infranumerator "farmops/internal/infrastructure/numerator"
	"farmops/internal/infrastructure/storage/postgres"
	"farmops/internal/infrastructure/storage/postgres/catalog_repo"
	"farmops/internal/infrastructure/storage/postgres/document_repo"
	"farmops/internal/infrastructure/storage/postgres/register_repo"
)

// PostgresOptions tune the Postgres storage.
type PostgresOptions struct {
	Tx             postgres.TxOptions
	IdempotencyTTL time.Duration
	// Catalog, when set, caches product type and slaughter lookups.
	Catalog *cache.CatalogCache
}

// NewPostgresStorage builds Storage on a connection pool.
func NewPostgresStorage(pool *postgres.Pool, opts PostgresOptions) (Storage, error) {
	txm := postgres.NewTxManager(pool, opts.Tx)

	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		return Storage{}, fmt.Errorf("audit service: %w", err)
	}

	var (
		productTypes product_type.Repository = catalog_repo.NewProductTypeRepo(txm)
		slaughters   slaughter.Repository    = catalog_repo.NewSlaughterRepo(txm)
	)
	if opts.Catalog != nil {
		productTypes = opts.Catalog.ProductTypes(productTypes)
		slaughters = opts.Catalog.Slaughters(slaughters)
	}

	return Storage{
		TxManager:    txm,
		Products:     register_repo.NewProductRepo(txm),
		ProductTypes: productTypes,
		Slaughters:   slaughters,
		Orders:       document_repo.NewOrderRepo(txm),
		Deliveries:   document_repo.NewDeliveryRepo(txm),
		Numerator: infranumerator.NewWithQuerierFunc(func(ctx context.Context) infranumerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		Audit:       auditSvc,
		Idempotency: postgres.NewIdempotencyStore(txm, opts.IdempotencyTTL),
		Ping:        pool.Ping,
	}, nil
}
