package delivery

import (
	"context"
	"time"

	"farmops/internal/core/id"
	"farmops/internal/domain"
)

// Repository defines operations for deliveries.
type Repository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, deliveryID id.ID) (*Delivery, error)

	// GetForUpdate locks the delivery until the transaction ends.
	GetForUpdate(ctx context.Context, deliveryID id.ID) (*Delivery, error)

	// Update writes d if its version is unchanged and increments d.Version.
	Update(ctx context.Context, d *Delivery) error
	Delete(ctx context.Context, deliveryID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Delivery], error)

	// DeliveredQuantity sums quantity_delivered for the order, leaving out
	// excludeDeliveryID when set.
	DeliveredQuantity(ctx context.Context, orderID id.ID, excludeDeliveryID *id.ID) (int64, error)
}

// ListFilter for filtering deliveries.
type ListFilter struct {
	domain.ListFilter

	OrderID  *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
}
