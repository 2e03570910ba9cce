package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"farmops/internal/core/apperror"
	"farmops/internal/core/types"
	"farmops/internal/domain/documents/order"
)

// CreateOrderRequest places a new order. Either productId or productType
// must be given.
type CreateOrderRequest struct {
	OrderDate          string           `json:"orderDate"`
	CustomerName       string           `json:"customerName"`
	ProductID          *string          `json:"productId"`
	ProductType        string           `json:"productType"`
	Quantity           int64            `json:"quantity"`
	ManualUnitWeightKg *decimal.Decimal `json:"manualUnitWeightKg"`
	UnitPrice          *decimal.Decimal `json:"unitPrice"`
	TotalAmount        *decimal.Decimal `json:"totalAmount"`
	Notes              string           `json:"notes"`
}

// ToInput converts the request into order.CreateInput.
func (r *CreateOrderRequest) ToInput() (order.CreateInput, error) {
	date, err := ParseDate("orderDate", r.OrderDate)
	if err != nil {
		return order.CreateInput{}, err
	}
	productID, err := ParseOptionalID("productId", r.ProductID)
	if err != nil {
		return order.CreateInput{}, err
	}
	return order.CreateInput{
		OrderDate:          date,
		CustomerName:       r.CustomerName,
		ProductID:          productID,
		ProductType:        r.ProductType,
		Quantity:           r.Quantity,
		ManualUnitWeightKg: types.NullFromPtr(r.ManualUnitWeightKg),
		UnitPrice:          types.NullFromPtr(r.UnitPrice),
		TotalAmount:        types.NullFromPtr(r.TotalAmount),
		Notes:              r.Notes,
	}, nil
}

// UpdateOrderRequest is a partial update. Absent fields are kept.
// An empty productId unlinks the product.
type UpdateOrderRequest struct {
	OrderDate          *string          `json:"orderDate"`
	CustomerName       *string          `json:"customerName"`
	ProductID          *string          `json:"productId"`
	ProductType        *string          `json:"productType"`
	Quantity           *int64           `json:"quantity"`
	ManualUnitWeightKg *decimal.Decimal `json:"manualUnitWeightKg"`
	UnitPrice          *decimal.Decimal `json:"unitPrice"`
	TotalAmount        *decimal.Decimal `json:"totalAmount"`
	Status             *string          `json:"status"`
	Notes              *string          `json:"notes"`
	Version            *int             `json:"version"`
}

// ToInput converts the request into order.UpdateInput.
func (r *UpdateOrderRequest) ToInput() (order.UpdateInput, error) {
	in := order.UpdateInput{
		CustomerName:       r.CustomerName,
		ProductType:        r.ProductType,
		Quantity:           r.Quantity,
		ManualUnitWeightKg: r.ManualUnitWeightKg,
		UnitPrice:          r.UnitPrice,
		TotalAmount:        r.TotalAmount,
		Notes:              r.Notes,
		ExpectedVersion:    r.Version,
	}

	if r.OrderDate != nil {
		date, err := ParseDate("orderDate", *r.OrderDate)
		if err != nil {
			return in, err
		}
		if date.IsZero() {
			return in, apperror.NewValidation("order date cannot be empty").WithDetail("field", "orderDate")
		}
		in.OrderDate = &date
	}

	if r.ProductID != nil {
		if strings.TrimSpace(*r.ProductID) == "" {
			in.ClearProductID = true
		} else {
			productID, err := ParseID("productId", *r.ProductID)
			if err != nil {
				return in, err
			}
			in.ProductID = &productID
		}
	}

	if r.Status != nil {
		status := order.Status(strings.ToLower(strings.TrimSpace(*r.Status)))
		if !status.Valid() {
			return in, apperror.NewValidation("unknown status").
				WithDetail("field", "status").
				WithDetail("value", *r.Status)
		}
		in.Status = &status
	}

	return in, nil
}

// ListOrdersRequest filters the order list.
type ListOrdersRequest struct {
	ListRequest
	Status    string `form:"status"`
	ProductID string `form:"productId"`
	Mode      string `form:"mode"`
}

// ToFilter converts the request into order.ListFilter.
func (r *ListOrdersRequest) ToFilter() (order.ListFilter, error) {
	f := order.ListFilter{ListFilter: r.ListRequest.ToFilter()}

	if r.Status != "" {
		status := order.Status(strings.ToLower(r.Status))
		if !status.Valid() {
			return f, apperror.NewValidation("unknown status").WithDetail("field", "status")
		}
		f.Status = &status
	}
	if r.Mode != "" {
		mode := order.Mode(strings.ToLower(r.Mode))
		if !mode.Valid() {
			return f, apperror.NewValidation("unknown mode").WithDetail("field", "mode")
		}
		f.Mode = &mode
	}
	if r.ProductID != "" {
		productID, err := ParseID("productId", r.ProductID)
		if err != nil {
			return f, err
		}
		f.ProductID = &productID
	}
	return f, nil
}

// OrderResponse is an order as returned by the API.
type OrderResponse struct {
	ID                 string              `json:"id"`
	Number             string              `json:"number"`
	OrderDate          string              `json:"orderDate"`
	CustomerName       string              `json:"customerName"`
	ProductID          *string             `json:"productId"`
	ProductType        string              `json:"productType"`
	Mode               order.Mode          `json:"mode"`
	Quantity           int64               `json:"quantity"`
	ManualUnitWeightKg decimal.NullDecimal `json:"manualUnitWeightKg"`
	UnitWeightKg       decimal.Decimal     `json:"unitWeightKg"`
	UnitPrice          decimal.Decimal     `json:"unitPrice"`
	TotalAmount        decimal.Decimal     `json:"totalAmount"`
	Status             order.Status        `json:"status"`
	Notes              string              `json:"notes,omitempty"`
	Version            int                 `json:"version"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`

	// Present on single-order reads only.
	DeliveredQuantity   *int64 `json:"deliveredQuantity,omitempty"`
	OutstandingQuantity *int64 `json:"outstandingQuantity,omitempty"`
}

// FromOrder creates OrderResponse from an order.
func FromOrder(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:                 o.ID.String(),
		Number:             o.Number,
		OrderDate:          o.OrderDate.Format(dateLayout),
		CustomerName:       o.CustomerName,
		ProductID:          idString(o.ProductID),
		ProductType:        o.ProductType,
		Mode:               o.Mode(),
		Quantity:           o.Quantity,
		ManualUnitWeightKg: o.ManualUnitWeightKg,
		UnitWeightKg:       o.UnitWeightKg,
		UnitPrice:          o.UnitPrice,
		TotalAmount:        o.TotalAmount,
		Status:             o.Status,
		Notes:              o.Notes,
		Version:            o.Version,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// FromOrderView adds fulfillment figures to FromOrder.
func FromOrderView(v *order.View) OrderResponse {
	resp := FromOrder(v.Order)
	resp.DeliveredQuantity = &v.Delivered
	resp.OutstandingQuantity = &v.Outstanding
	return resp
}

