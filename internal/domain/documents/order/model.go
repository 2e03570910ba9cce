// Package order provides the customer order document and its lifecycle:
// capacity-checked creation and edits, price resolution and the derived
// status state machine.
package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"farmops/internal/core/apperror"
	"farmops/internal/core/entity"
	"farmops/internal/core/id"
)

// Status of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the order still reserves stock.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed
}

// DeriveStatus computes the status from delivered quantity.
// Cancelled is never left automatically.
func DeriveStatus(current Status, quantity, delivered int64) Status {
	switch {
	case current == StatusCancelled:
		return StatusCancelled
	case delivered >= quantity:
		return StatusFulfilled
	case delivered > 0:
		return StatusConfirmed
	default:
		return StatusPending
	}
}

// Mode tells whether an order is backed by a tracked product.
type Mode string

const (
	// ModeManaged orders reference a product: capacity is checked and
	// deliveries move its stock.
	ModeManaged Mode = "managed"
	// ModeUnmanaged orders carry only a free-text product type and are not
	// constrained by stock.
	ModeUnmanaged Mode = "unmanaged"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeManaged || m == ModeUnmanaged
}

// Order is a customer commitment against a product or a product type.
type Order struct {
	entity.BaseDocument

	OrderDate    time.Time `db:"order_date" json:"orderDate"`
	CustomerName string    `db:"customer_name" json:"customerName"`

	ProductID   *id.ID `db:"product_id" json:"productId,omitempty"`
	ProductType string `db:"product_type" json:"productType,omitempty"`

	Quantity int64 `db:"quantity" json:"quantity"`

	ManualUnitWeightKg decimal.NullDecimal `db:"manual_unit_weight_kg" json:"manualUnitWeightKg"`
	UnitWeightKg       decimal.Decimal     `db:"unit_weight_kg" json:"unitWeightKg"`
	UnitPrice          decimal.Decimal     `db:"unit_price" json:"unitPrice"`
	TotalAmount        decimal.Decimal     `db:"total_amount" json:"totalAmount"`

	Status Status `db:"status" json:"status"`
	Notes  string `db:"notes" json:"notes,omitempty"`
}

// NewOrder creates a pending order.
func NewOrder(customerName string, quantity int64) *Order {
	return &Order{
		BaseDocument: entity.NewBaseDocument(),
		OrderDate:    today(),
		CustomerName: strings.TrimSpace(customerName),
		Quantity:     quantity,
		Status:       StatusPending,
	}
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Mode derives the order mode from its product link.
func (o *Order) Mode() Mode {
	if o.ProductID != nil {
		return ModeManaged
	}
	return ModeUnmanaged
}

// Validate implements entity.Validatable.
func (o *Order) Validate(_ context.Context) error {
	if strings.TrimSpace(o.CustomerName) == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}
	if o.Quantity <= 0 {
		return apperror.NewValidation("quantity must be a positive integer").
			WithDetail("field", "quantity")
	}
	if o.ProductID != nil && id.IsNil(*o.ProductID) {
		return apperror.NewValidation("product id is invalid").
			WithDetail("field", "productId")
	}
	if o.ProductID == nil && strings.TrimSpace(o.ProductType) == "" {
		return apperror.NewValidation("either product or product type is required").
			WithDetail("field", "productId")
	}
	if o.ManualUnitWeightKg.Valid && o.ManualUnitWeightKg.Decimal.IsNegative() {
		return apperror.NewValidation("manual unit weight cannot be negative").
			WithDetail("field", "manualUnitWeightKg")
	}
	if !o.Status.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}
	return nil
}

// View is an order with its fulfillment figures.
type View struct {
	*Order
	Mode        Mode  `json:"mode"`
	Delivered   int64 `json:"deliveredQuantity"`
	Outstanding int64 `json:"outstandingQuantity"`
}

// NewView builds a View from an order and its delivered sum.
func NewView(o *Order, delivered int64) *View {
	return &View{
		Order:       o,
		Mode:        o.Mode(),
		Delivered:   delivered,
		Outstanding: max(o.Quantity-delivered, 0),
	}
}

// CreateInput carries the fields of a new order.
type CreateInput struct {
	OrderDate          time.Time
	CustomerName       string
	ProductID          *id.ID
	ProductType        string
	Quantity           int64
	ManualUnitWeightKg decimal.NullDecimal
	UnitPrice          decimal.NullDecimal
	TotalAmount        decimal.NullDecimal
	Notes              string
}

// UpdateInput is a partial update. Nil fields keep the stored value.
type UpdateInput struct {
	OrderDate    *time.Time
	CustomerName *string

	ProductID *id.ID
	// ClearProductID unlinks the product, turning the order unmanaged.
	ClearProductID bool
	ProductType    *string

	Quantity *int64

	// ManualUnitWeightKg set to zero clears the override.
	ManualUnitWeightKg *decimal.Decimal

	// UnitPrice replaces the stored price per kg. When nil the stored price is
	// kept unless the product link changes.
	UnitPrice *decimal.Decimal
	// TotalAmount overrides the computed total for this update only. It is
	// never carried forward: an update without it recomputes the total from
	// quantity, weight and price, dropping an override given earlier.
	TotalAmount *decimal.Decimal

	// Status accepts cancelled, or any other status to reopen a cancelled
	// order; the stored status is then derived from deliveries.
	Status *Status
	Notes  *string

	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int
}
