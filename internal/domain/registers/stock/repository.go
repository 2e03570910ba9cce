package stock

import (
	"context"

	"farmops/internal/core/id"
	"farmops/internal/domain"
)

// Repository defines storage operations for products and their movements.
type Repository interface {
	// Create inserts a new product.
	Create(ctx context.Context, p *Product) error

	// GetByID returns the product or a NotFound AppError.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetForUpdate locks the given products (in the order given) until the
	// surrounding transaction ends. Any missing ID is a NotFound AppError.
	GetForUpdate(ctx context.Context, productIDs []id.ID) (map[id.ID]*Product, error)

	// SetPackagedQuantity stores a new packaged quantity and bumps the version.
	SetPackagedQuantity(ctx context.Context, productID id.ID, quantity int64) error

	// ListIDs returns all product IDs in ID order.
	ListIDs(ctx context.Context) ([]id.ID, error)

	// CreateMovement appends to the movement ledger.
	CreateMovement(ctx context.Context, m *Movement) error

	// ListMovements returns a product's movements, newest first.
	ListMovements(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*Movement], error)
}
