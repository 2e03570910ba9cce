// Package reservation computes how much of a product's packaged stock is
// committed to open orders and how much is still sellable.
package reservation

import (
	"context"
	"fmt"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain/registers/stock"
)

// Commitment is the outstanding part of one open order.
type Commitment struct {
	OrderID   id.ID `db:"order_id"`
	Quantity  int64 `db:"quantity"`
	Delivered int64 `db:"delivered"`
}

// Outstanding is the undelivered remainder, never negative.
func (c Commitment) Outstanding() int64 {
	return max(c.Quantity-c.Delivered, 0)
}

// Reserved sums the outstanding quantity of the given commitments.
func Reserved(commitments []Commitment) int64 {
	var total int64
	for _, c := range commitments {
		total += c.Outstanding()
	}
	return total
}

// Source lists open commitments against a product. Only orders in an open
// status (pending, confirmed) are returned; excludeOrderID, when set, is left out.
type Source interface {
	OpenCommitments(ctx context.Context, productID id.ID, excludeOrderID *id.ID) ([]Commitment, error)
}

// ProductReader loads a product.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*stock.Product, error)
}

// Availability is the reservation read model of a product.
type Availability struct {
	ProductID id.ID `json:"productId"`
	Packaged  int64 `json:"packagedQuantity"`
	Reserved  int64 `json:"reservedQuantity"`
	Available int64 `json:"availableQuantity"`
}

// Calculator answers reservation questions. It only reads; callers that act
// on the answer must hold the product lock for the read to stay valid.
type Calculator struct {
	source   Source
	products ProductReader
}

// NewCalculator creates a Calculator.
func NewCalculator(source Source, products ProductReader) *Calculator {
	return &Calculator{source: source, products: products}
}

// ReservedQuantity returns the outstanding quantity of open orders on the product.
func (c *Calculator) ReservedQuantity(ctx context.Context, productID id.ID, excludeOrderID *id.ID) (int64, error) {
	commitments, err := c.source.OpenCommitments(ctx, productID, excludeOrderID)
	if err != nil {
		return 0, fmt.Errorf("load open commitments: %w", err)
	}
	return Reserved(commitments), nil
}

// Availability loads the product and computes its reservation figures.
func (c *Calculator) Availability(ctx context.Context, productID id.ID, excludeOrderID *id.ID) (Availability, error) {
	product, err := c.products.GetByID(ctx, productID)
	if err != nil {
		return Availability{}, err
	}
	return c.availabilityOf(ctx, product, excludeOrderID)
}

// AvailableQuantity is packaged minus reserved. It can be negative only if the
// capacity invariant was already broken.
func (c *Calculator) AvailableQuantity(ctx context.Context, productID id.ID, excludeOrderID *id.ID) (int64, error) {
	a, err := c.Availability(ctx, productID, excludeOrderID)
	if err != nil {
		return 0, err
	}
	return a.Available, nil
}

// Check rejects requested with CapacityExceeded when it does not fit into the
// product's available quantity. The product passed in should be the locked row.
func (c *Calculator) Check(ctx context.Context, product *stock.Product, requested int64, excludeOrderID *id.ID) error {
	a, err := c.availabilityOf(ctx, product, excludeOrderID)
	if err != nil {
		return err
	}
	if requested > a.Available {
		return apperror.NewCapacityExceeded(product.ID.String(), requested, a.Available)
	}
	return nil
}

func (c *Calculator) availabilityOf(ctx context.Context, product *stock.Product, excludeOrderID *id.ID) (Availability, error) {
	reserved, err := c.ReservedQuantity(ctx, product.ID, excludeOrderID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		ProductID: product.ID,
		Packaged:  product.PackagedQuantity,
		Reserved:  reserved,
		Available: product.PackagedQuantity - reserved,
	}, nil
}
