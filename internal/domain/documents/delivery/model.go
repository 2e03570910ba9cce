// Package delivery provides the delivery document: fulfillment records that
// consume packaged stock and drive the status of their order.
package delivery

import (
	"context"
	"strings"
	"time"

	"farmops/internal/core/apperror"
	"farmops/internal/core/entity"
	"farmops/internal/core/id"
)

// Delivery is a fulfillment record against at most one order.
type Delivery struct {
	entity.BaseDocument

	// OrderID is nil only for deliveries whose order was deleted.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	// ProductID is the product whose stock this delivery consumed, fixed when
	// the delivery is linked to an order. Nil for unmanaged orders.
	ProductID *id.ID `db:"product_id" json:"productId,omitempty"`

	DeliveryDate      time.Time `db:"delivery_date" json:"deliveryDate"`
	RecipientName     string    `db:"recipient_name" json:"recipientName"`
	QuantityDelivered int64     `db:"quantity_delivered" json:"quantityDelivered"`
	Address           string    `db:"address" json:"address,omitempty"`
	Notes             string    `db:"notes" json:"notes,omitempty"`
}

// NewDelivery creates a delivery for the given order.
func NewDelivery(orderID id.ID, quantity int64) *Delivery {
	return &Delivery{
		BaseDocument:      entity.NewBaseDocument(),
		OrderID:           &orderID,
		DeliveryDate:      time.Now().UTC().Truncate(24 * time.Hour),
		QuantityDelivered: quantity,
	}
}

// Validate implements entity.Validatable.
func (d *Delivery) Validate(_ context.Context) error {
	if d.QuantityDelivered <= 0 {
		return apperror.NewValidation("quantity delivered must be a positive integer").
			WithDetail("field", "quantityDelivered")
	}
	if d.OrderID != nil && id.IsNil(*d.OrderID) {
		return apperror.NewValidation("order id is invalid").
			WithDetail("field", "orderId")
	}
	if len(strings.TrimSpace(d.RecipientName)) > 255 {
		return apperror.NewValidation("recipient name is too long").
			WithDetail("field", "recipientName")
	}
	return nil
}

// CreateInput carries the fields of a new delivery.
type CreateInput struct {
	OrderID           *id.ID
	DeliveryDate      time.Time
	RecipientName     string
	QuantityDelivered int64
	Address           string
	Notes             string
}

// UpdateInput is a partial update. Nil fields keep the stored value.
type UpdateInput struct {
	// OrderID moves the delivery to another order.
	OrderID *id.ID
	// ClearOrderID is rejected for linked deliveries.
	ClearOrderID bool

	DeliveryDate      *time.Time
	RecipientName     *string
	QuantityDelivered *int64
	Address           *string
	Notes             *string

	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int
}
