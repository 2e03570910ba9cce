package stock

import (
	"context"
	"fmt"
	"time"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/core/tx"
	"farmops/internal/domain"
	"farmops/pkg/logger"
)

// Service provides business operations for the stock register.
// Lock and Adjust expect to run inside the caller's transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock register service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create registers a packaged product. A non-zero initial quantity is
// recorded as a received movement.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if p.PackagedQuantity == 0 {
			return nil
		}
		return s.repo.CreateMovement(ctx, &Movement{
			ID:           id.New(),
			ProductID:    p.ID,
			Reason:       ReasonReceived,
			Delta:        p.PackagedQuantity,
			BalanceAfter: p.PackagedQuantity,
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product registered", "id", p.ID, "type", p.Type, "packaged_quantity", p.PackagedQuantity)
	return nil
}

// GetByID returns a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Lock takes row locks on the given products in a deterministic order.
// Nil pointers and duplicates are ignored.
func (s *Service) Lock(ctx context.Context, productIDs ...*id.ID) (map[id.ID]*Product, error) {
	ids := id.SortedUnique(productIDs...)
	if len(ids) == 0 {
		return map[id.ID]*Product{}, nil
	}
	return s.repo.GetForUpdate(ctx, ids)
}

// Adjust changes a product's packaged quantity by delta and records the
// movement. A decrement that would go below zero fails with
// InsufficientInventory and changes nothing.
func (s *Service) Adjust(ctx context.Context, productID id.ID, delta int64, ref Ref) (*Product, error) {
	locked, err := s.repo.GetForUpdate(ctx, []id.ID{productID})
	if err != nil {
		return nil, err
	}
	p := locked[productID]
	if delta == 0 {
		return p, nil
	}

	next := p.PackagedQuantity + delta
	if next < 0 {
		return nil, apperror.NewInsufficientInventory(productID.String(), -delta, p.PackagedQuantity)
	}

	if err := s.repo.SetPackagedQuantity(ctx, productID, next); err != nil {
		return nil, fmt.Errorf("set packaged quantity: %w", err)
	}
	if err := s.repo.CreateMovement(ctx, &Movement{
		ID:           id.New(),
		ProductID:    productID,
		OrderID:      ref.OrderID,
		DeliveryID:   ref.DeliveryID,
		Reason:       ref.Reason,
		Delta:        delta,
		BalanceAfter: next,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}

	logger.Debug(ctx, "stock adjusted",
		"product_id", productID,
		"delta", delta,
		"balance", next,
		"reason", ref.Reason,
	)

	p.PackagedQuantity = next
	p.Version++
	return p, nil
}

// ListIDs returns every product ID.
func (s *Service) ListIDs(ctx context.Context) ([]id.ID, error) {
	return s.repo.ListIDs(ctx)
}

// Movements returns the movement ledger of a product.
func (s *Service) Movements(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*Movement], error) {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return domain.ListResult[*Movement]{}, err
	}
	filter.Normalize()
	return s.repo.ListMovements(ctx, productID, filter)
}
