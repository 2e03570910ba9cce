// Package memory provides an in-process implementation of every repository,
// for local runs without Postgres and for tests. A single mutex serializes
// transactions; a failed transaction restores the snapshot taken at its start.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"farmops/internal/core/id"
	"farmops/internal/domain/audit"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/domain/documents/delivery"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/registers/stock"
)

type state struct {
	products     map[id.ID]stock.Product
	movements    []stock.Movement
	productTypes map[string]product_type.ProductType
	slaughters   map[id.ID]slaughter.Slaughtered
	orders       map[id.ID]order.Order
	deliveries   map[id.ID]delivery.Delivery
	sequences    map[string]int64
	audit        []audit.Entry
}

func newState() *state {
	return &state{
		products:     make(map[id.ID]stock.Product),
		productTypes: make(map[string]product_type.ProductType),
		slaughters:   make(map[id.ID]slaughter.Slaughtered),
		orders:       make(map[id.ID]order.Order),
		deliveries:   make(map[id.ID]delivery.Delivery),
		sequences:    make(map[string]int64),
	}
}

// clone copies the maps and slices. Entities are stored by value and their
// pointer fields are never mutated in place, so a shallow copy per entity is
// enough.
func (st *state) clone() *state {
	return &state{
		products:     maps.Clone(st.products),
		movements:    slices.Clone(st.movements),
		productTypes: maps.Clone(st.productTypes),
		slaughters:   maps.Clone(st.slaughters),
		orders:       maps.Clone(st.orders),
		deliveries:   maps.Clone(st.deliveries),
		sequences:    maps.Clone(st.sequences),
		audit:        slices.Clone(st.audit),
	}
}

// Store holds all data of the memory driver.
type Store struct {
	mu   sync.Mutex
	data *state

	Idempotency *IdempotencyStore
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data:        newState(),
		Idempotency: NewIdempotencyStore(0),
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// RunInTransaction implements tx.Manager. Nested calls reuse the outer
// transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

// view runs fn with the data, taking the lock unless ctx is inside a transaction.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Products returns the stock repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// ProductTypes returns the product type repository.
func (s *Store) ProductTypes() *ProductTypeRepo { return &ProductTypeRepo{s: s} }

// Slaughters returns the slaughter repository.
func (s *Store) Slaughters() *SlaughterRepo { return &SlaughterRepo{s: s} }

// Orders returns the order repository.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

// Deliveries returns the delivery repository.
func (s *Store) Deliveries() *DeliveryRepo { return &DeliveryRepo{s: s} }

// Numerator returns a document number generator backed by the store.
func (s *Store) Numerator() *Numerator { return &Numerator{s: s} }

// Audit returns an audit recorder backed by the store.
func (s *Store) Audit() *AuditRecorder { return &AuditRecorder{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
