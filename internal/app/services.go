// Package app wires storage implementations into the domain services.
// The server, the worker and farmctl all build their services here.
package app

import (
	"context"

	"farmops/internal/core/idempotency"
	"farmops/internal/core/numerator"
	"farmops/internal/core/tx"
	"farmops/internal/domain/audit"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/domain/documents/delivery"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/reconciliation"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/domain/reservation"
	"farmops/internal/infrastructure/storage/memory"
)

// Storage is one storage driver's set of repositories.
type Storage struct {
	TxManager    tx.Manager
	Products     stock.Repository
	ProductTypes product_type.Repository
	Slaughters   slaughter.Repository
	Orders       order.Repository
	Deliveries   delivery.Repository
	Numerator    numerator.Generator
	Audit        audit.Recorder
	Idempotency  idempotency.Store

	// Ping reports storage health.
	Ping func(ctx context.Context) error
}

// NewMemoryStorage exposes a memory store as Storage.
func NewMemoryStorage(store *memory.Store) Storage {
	return Storage{
		TxManager:    store,
		Products:     store.Products(),
		ProductTypes: store.ProductTypes(),
		Slaughters:   store.Slaughters(),
		Orders:       store.Orders(),
		Deliveries:   store.Deliveries(),
		Numerator:    store.Numerator(),
		Audit:        store.Audit(),
		Idempotency:  store.Idempotency,
		Ping:         store.Ping,
	}
}

// Services are the domain services built on a Storage.
type Services struct {
	Storage        Storage
	Stock          *stock.Service
	Calculator     *reservation.Calculator
	Orders         *order.Service
	Deliveries     *delivery.Service
	Reconciliation *reconciliation.Service
}

// Options tune service construction.
type Options struct {
	// ReconcileConcurrency bounds parallel work of a reconciliation sweep.
	ReconcileConcurrency int
}

// NewServices builds every domain service on st.
func NewServices(st Storage, opts Options) *Services {
	stockSvc := stock.NewService(st.Products, st.TxManager)
	calculator := reservation.NewCalculator(st.Orders, st.Products)

	orders := order.NewService(order.Deps{
		Repo:         st.Orders,
		Stock:        stockSvc,
		Calculator:   calculator,
		ProductTypes: st.ProductTypes,
		Slaughters:   st.Slaughters,
		Numerator:    st.Numerator,
		Audit:        st.Audit,
		TxManager:    st.TxManager,
	})

	deliveries := delivery.NewService(delivery.Deps{
		Repo:      st.Deliveries,
		Orders:    orders,
		Stock:     stockSvc,
		Numerator: st.Numerator,
		Audit:     st.Audit,
		TxManager: st.TxManager,
	})

	return &Services{
		Storage:        st,
		Stock:          stockSvc,
		Calculator:     calculator,
		Orders:         orders,
		Deliveries:     deliveries,
		Reconciliation: reconciliation.NewService(orders, stockSvc, calculator, st.TxManager, opts.ReconcileConcurrency),
	}
}
