package dto

import (
	"strings"
	"time"

	"farmops/internal/core/apperror"
	"farmops/internal/domain/documents/delivery"
)

// CreateDeliveryRequest records a delivery against an order.
type CreateDeliveryRequest struct {
	OrderID           string `json:"orderId" binding:"required"`
	DeliveryDate      string `json:"deliveryDate"`
	RecipientName     string `json:"recipientName"`
	QuantityDelivered int64  `json:"quantityDelivered"`
	Address           string `json:"address"`
	Notes             string `json:"notes"`
}

// ToInput converts the request into delivery.CreateInput.
func (r *CreateDeliveryRequest) ToInput() (delivery.CreateInput, error) {
	orderID, err := ParseID("orderId", r.OrderID)
	if err != nil {
		return delivery.CreateInput{}, err
	}
	date, err := ParseDate("deliveryDate", r.DeliveryDate)
	if err != nil {
		return delivery.CreateInput{}, err
	}
	return delivery.CreateInput{
		OrderID:           &orderID,
		DeliveryDate:      date,
		RecipientName:     r.RecipientName,
		QuantityDelivered: r.QuantityDelivered,
		Address:           r.Address,
		Notes:             r.Notes,
	}, nil
}

// UpdateDeliveryRequest is a partial update. Absent fields are kept.
type UpdateDeliveryRequest struct {
	OrderID           *string `json:"orderId"`
	DeliveryDate      *string `json:"deliveryDate"`
	RecipientName     *string `json:"recipientName"`
	QuantityDelivered *int64  `json:"quantityDelivered"`
	Address           *string `json:"address"`
	Notes             *string `json:"notes"`
	Version           *int    `json:"version"`
}

// ToInput converts the request into delivery.UpdateInput.
func (r *UpdateDeliveryRequest) ToInput() (delivery.UpdateInput, error) {
	in := delivery.UpdateInput{
		RecipientName:     r.RecipientName,
		QuantityDelivered: r.QuantityDelivered,
		Address:           r.Address,
		Notes:             r.Notes,
		ExpectedVersion:   r.Version,
	}

	if r.OrderID != nil {
		if strings.TrimSpace(*r.OrderID) == "" {
			in.ClearOrderID = true
		} else {
			orderID, err := ParseID("orderId", *r.OrderID)
			if err != nil {
				return in, err
			}
			in.OrderID = &orderID
		}
	}

	if r.DeliveryDate != nil {
		date, err := ParseDate("deliveryDate", *r.DeliveryDate)
		if err != nil {
			return in, err
		}
		if date.IsZero() {
			return in, apperror.NewValidation("delivery date cannot be empty").WithDetail("field", "deliveryDate")
		}
		in.DeliveryDate = &date
	}

	return in, nil
}

// ListDeliveriesRequest filters the delivery list.
type ListDeliveriesRequest struct {
	ListRequest
	OrderID  string `form:"orderId"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
}

// ToFilter converts the request into delivery.ListFilter.
func (r *ListDeliveriesRequest) ToFilter() (delivery.ListFilter, error) {
	f := delivery.ListFilter{ListFilter: r.ListRequest.ToFilter()}

	if r.OrderID != "" {
		orderID, err := ParseID("orderId", r.OrderID)
		if err != nil {
			return f, err
		}
		f.OrderID = &orderID
	}
	for _, bound := range []struct {
		field string
		value string
		dst   **time.Time
	}{
		{"dateFrom", r.DateFrom, &f.DateFrom},
		{"dateTo", r.DateTo, &f.DateTo},
	} {
		date, err := ParseDate(bound.field, bound.value)
		if err != nil {
			return f, err
		}
		if !date.IsZero() {
			*bound.dst = &date
		}
	}
	return f, nil
}

// DeliveryResponse is a delivery as returned by the API.
type DeliveryResponse struct {
	ID                string    `json:"id"`
	Number            string    `json:"number"`
	OrderID           *string   `json:"orderId"`
	ProductID         *string   `json:"productId"`
	DeliveryDate      string    `json:"deliveryDate"`
	RecipientName     string    `json:"recipientName"`
	QuantityDelivered int64     `json:"quantityDelivered"`
	Address           string    `json:"address,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// FromDelivery creates DeliveryResponse.
func FromDelivery(d *delivery.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:                d.ID.String(),
		Number:            d.Number,
		OrderID:           idString(d.OrderID),
		ProductID:         idString(d.ProductID),
		DeliveryDate:      d.DeliveryDate.Format(dateLayout),
		RecipientName:     d.RecipientName,
		QuantityDelivered: d.QuantityDelivered,
		Address:           d.Address,
		Notes:             d.Notes,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}
