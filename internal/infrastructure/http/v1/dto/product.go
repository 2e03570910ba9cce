package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"farmops/internal/core/types"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/domain/reservation"
)

// CreateProductRequest registers a packaged product batch.
type CreateProductRequest struct {
	Type             string           `json:"type" binding:"required"`
	PackagedQuantity int64            `json:"packagedQuantity"`
	BatchID          *string          `json:"batchId"`
	Weight           *decimal.Decimal `json:"weight"`
	BaseUnitPrice    *decimal.Decimal `json:"baseUnitPrice"`
	SlaughteredID    *string          `json:"slaughteredId"`
}

// ToProduct builds the domain product.
func (r *CreateProductRequest) ToProduct() (*stock.Product, error) {
	p := stock.NewProduct(r.Type, r.PackagedQuantity)

	var err error
	if p.BatchID, err = ParseOptionalID("batchId", r.BatchID); err != nil {
		return nil, err
	}
	if p.SlaughteredID, err = ParseOptionalID("slaughteredId", r.SlaughteredID); err != nil {
		return nil, err
	}
	p.Weight = types.NullFromPtr(r.Weight)
	p.BaseUnitPrice = types.NullFromPtr(r.BaseUnitPrice)
	return p, nil
}

// ProductResponse is a product as returned by the API.
type ProductResponse struct {
	ID               string              `json:"id"`
	Type             string              `json:"type"`
	PackagedQuantity int64               `json:"packagedQuantity"`
	BatchID          *string             `json:"batchId,omitempty"`
	Weight           decimal.NullDecimal `json:"weight"`
	BaseUnitPrice    decimal.NullDecimal `json:"baseUnitPrice"`
	SlaughteredID    *string             `json:"slaughteredId,omitempty"`
	Version          int                 `json:"version"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// FromProduct creates ProductResponse from a stock product.
func FromProduct(p *stock.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID.String(),
		Type:             p.Type,
		PackagedQuantity: p.PackagedQuantity,
		BatchID:          idString(p.BatchID),
		Weight:           p.Weight,
		BaseUnitPrice:    p.BaseUnitPrice,
		SlaughteredID:    idString(p.SlaughteredID),
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// AvailabilityResponse is the reservation read model of a product.
type AvailabilityResponse struct {
	ProductID         string `json:"productId"`
	PackagedQuantity  int64  `json:"packagedQuantity"`
	ReservedQuantity  int64  `json:"reservedQuantity"`
	AvailableQuantity int64  `json:"availableQuantity"`
}

// FromAvailability creates AvailabilityResponse.
func FromAvailability(a reservation.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ProductID:         a.ProductID.String(),
		PackagedQuantity:  a.Packaged,
		ReservedQuantity:  a.Reserved,
		AvailableQuantity: a.Available,
	}
}

// MovementResponse is one stock movement.
type MovementResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	OrderID      *string   `json:"orderId,omitempty"`
	DeliveryID   *string   `json:"deliveryId,omitempty"`
	Reason       string    `json:"reason"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromMovement creates MovementResponse.
func FromMovement(m *stock.Movement) MovementResponse {
	return MovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		OrderID:      idString(m.OrderID),
		DeliveryID:   idString(m.DeliveryID),
		Reason:       string(m.Reason),
		Delta:        m.Delta,
		BalanceAfter: m.BalanceAfter,
		CreatedAt:    m.CreatedAt,
	}
}
