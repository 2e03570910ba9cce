// Package stock provides the packaged-product stock register: the product rows
// whose packaged_quantity deliveries consume, and the movement ledger behind it.
package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain/catalogs/product_type"
)

// Product is a packaged finished-goods batch.
type Product struct {
	ID               id.ID               `db:"id" json:"id"`
	Type             string              `db:"type" json:"type"`
	PackagedQuantity int64               `db:"packaged_quantity" json:"packagedQuantity"`
	BatchID          *id.ID              `db:"batch_id" json:"batchId,omitempty"`
	Weight           decimal.NullDecimal `db:"weight" json:"weight"`
	BaseUnitPrice    decimal.NullDecimal `db:"base_unit_price" json:"baseUnitPrice"`
	SlaughteredID    *id.ID              `db:"slaughtered_id" json:"slaughteredId,omitempty"`
	Version          int                 `db:"version" json:"version"`
	CreatedAt        time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product with a generated ID and normalized type.
func NewProduct(productType string, packaged int64) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:               id.New(),
		Type:             product_type.NormalizeName(productType),
		PackagedQuantity: packaged,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(_ context.Context) error {
	if p.Type == "" {
		return apperror.NewValidation("product type is required").WithDetail("field", "type")
	}
	if p.PackagedQuantity < 0 {
		return apperror.NewValidation("packaged quantity cannot be negative").
			WithDetail("field", "packagedQuantity")
	}
	if p.Weight.Valid && p.Weight.Decimal.IsNegative() {
		return apperror.NewValidation("weight cannot be negative").WithDetail("field", "weight")
	}
	if p.BaseUnitPrice.Valid && p.BaseUnitPrice.Decimal.IsNegative() {
		return apperror.NewValidation("base unit price cannot be negative").
			WithDetail("field", "baseUnitPrice")
	}
	return nil
}

// MovementReason classifies a stock movement.
type MovementReason string

const (
	// ReasonReceived is the initial packaged quantity of a new product.
	ReasonReceived MovementReason = "received"
	// ReasonDelivered is stock consumed by a new delivery (or a re-linked one).
	ReasonDelivered MovementReason = "delivered"
	// ReasonDeliveryAdjusted is the delta of a delivery quantity edit.
	ReasonDeliveryAdjusted MovementReason = "delivery_adjusted"
	// ReasonDeliveryReversed returns stock of a deleted or re-linked delivery.
	ReasonDeliveryReversed MovementReason = "delivery_reversed"
)

// Movement is one change of a product's packaged quantity.
type Movement struct {
	ID           id.ID          `db:"id" json:"id"`
	ProductID    id.ID          `db:"product_id" json:"productId"`
	OrderID      *id.ID         `db:"order_id" json:"orderId,omitempty"`
	DeliveryID   *id.ID         `db:"delivery_id" json:"deliveryId,omitempty"`
	Reason       MovementReason `db:"reason" json:"reason"`
	Delta        int64          `db:"delta" json:"delta"`
	BalanceAfter int64          `db:"balance_after" json:"balanceAfter"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// Ref identifies what caused a movement.
type Ref struct {
	Reason     MovementReason
	OrderID    *id.ID
	DeliveryID *id.ID
}
