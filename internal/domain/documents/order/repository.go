package order

import (
	"context"

	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/reservation"
)

// Repository defines operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetForUpdate locks the orders until the transaction ends.
	// Any missing ID is a NotFound AppError.
	GetForUpdate(ctx context.Context, orderIDs []id.ID) (map[id.ID]*Order, error)

	// Update writes o if its version is unchanged and increments o.Version.
	// A stale version is a ConcurrencyConflict.
	Update(ctx context.Context, o *Order) error

	// UpdateStatus stores a derived status and increments the version.
	UpdateStatus(ctx context.Context, orderID id.ID, status Status) error

	Delete(ctx context.Context, orderID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	// ActiveIDs returns the IDs of every order that is not cancelled.
	ActiveIDs(ctx context.Context) ([]id.ID, error)

	// DeliveredQuantity sums quantity_delivered over the order's deliveries.
	DeliveredQuantity(ctx context.Context, orderID id.ID) (int64, error)

	reservation.Source
}

// ListFilter for filtering orders.
type ListFilter struct {
	domain.ListFilter

	Status    *Status
	ProductID *id.ID
	Mode      *Mode
}
