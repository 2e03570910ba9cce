package memory

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/reservation"
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	s *Store
}

var _ order.Repository = (*OrderRepo)(nil)

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return apperror.NewValidation("order already exists").WithDetail("id", o.ID.String())
		}
		st.orders[o.ID] = *o
		return nil
	})
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	var out *order.Order
	err := r.s.view(ctx, func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return apperror.NewNotFound("order", orderID)
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, orderIDs []id.ID) (map[id.ID]*order.Order, error) {
	out := make(map[id.ID]*order.Order, len(orderIDs))
	err := r.s.view(ctx, func(st *state) error {
		for _, orderID := range orderIDs {
			o, ok := st.orders[orderID]
			if !ok {
				return apperror.NewNotFound("order", orderID)
			}
			out[orderID] = &o
		}
		return nil
	})
	return out, err
}

func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	return r.s.view(ctx, func(st *state) error {
		stored, ok := st.orders[o.ID]
		if !ok {
			return apperror.NewNotFound("order", o.ID)
		}
		if stored.Version != o.Version {
			return apperror.NewConcurrencyConflict("order", o.ID)
		}
		o.Version++
		st.orders[o.ID] = *o
		return nil
	})
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status order.Status) error {
	return r.s.view(ctx, func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return apperror.NewNotFound("order", orderID)
		}
		o.Status = status
		o.Version++
		o.UpdatedAt = time.Now().UTC()
		st.orders[orderID] = o
		return nil
	})
}

// Delete removes the order and unlinks its deliveries, as the foreign key
// does in Postgres.
func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.orders[orderID]; !ok {
			return apperror.NewNotFound("order", orderID)
		}
		delete(st.orders, orderID)
		for deliveryID, d := range st.deliveries {
			if d.OrderID != nil && *d.OrderID == orderID {
				d.OrderID = nil
				st.deliveries[deliveryID] = d
			}
		}
		return nil
	})
}

func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) (domain.ListResult[*order.Order], error) {
	var all []*order.Order
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	err := r.s.view(ctx, func(st *state) error {
		for _, o := range st.orders {
			if filter.Status != nil && o.Status != *filter.Status {
				continue
			}
			if filter.ProductID != nil && !id.Equal(o.ProductID, filter.ProductID) {
				continue
			}
			if filter.Mode != nil && o.Mode() != *filter.Mode {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(o.CustomerName), search) &&
				!strings.Contains(strings.ToLower(o.Number), search) {
				continue
			}
			all = append(all, &o)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*order.Order]{}, err
	}

	slices.SortFunc(all, func(a, b *order.Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(b.Number, a.Number)
	})

	return domain.ListResult[*order.Order]{
		Items:      page(all, filter.Limit, filter.Offset),
		TotalCount: int64(len(all)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *OrderRepo) ActiveIDs(ctx context.Context) ([]id.ID, error) {
	var out []id.ID
	err := r.s.view(ctx, func(st *state) error {
		for orderID, o := range st.orders {
			if o.Status != order.StatusCancelled {
				out = append(out, orderID)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b id.ID) int { return bytes.Compare(a[:], b[:]) })
	return out, err
}

func (r *OrderRepo) DeliveredQuantity(ctx context.Context, orderID id.ID) (int64, error) {
	var total int64
	err := r.s.view(ctx, func(st *state) error {
		total = deliveredSum(st, orderID, nil)
		return nil
	})
	return total, err
}

func (r *OrderRepo) OpenCommitments(ctx context.Context, productID id.ID, excludeOrderID *id.ID) ([]reservation.Commitment, error) {
	var out []reservation.Commitment
	err := r.s.view(ctx, func(st *state) error {
		for orderID, o := range st.orders {
			if !o.Status.IsOpen() || o.ProductID == nil || *o.ProductID != productID {
				continue
			}
			if excludeOrderID != nil && orderID == *excludeOrderID {
				continue
			}
			out = append(out, reservation.Commitment{
				OrderID:   orderID,
				Quantity:  o.Quantity,
				Delivered: deliveredSum(st, orderID, nil),
			})
		}
		return nil
	})
	return out, err
}

func deliveredSum(st *state, orderID id.ID, excludeDeliveryID *id.ID) int64 {
	var total int64
	for deliveryID, d := range st.deliveries {
		if d.OrderID == nil || *d.OrderID != orderID {
			continue
		}
		if excludeDeliveryID != nil && deliveryID == *excludeDeliveryID {
			continue
		}
		total += d.QuantityDelivered
	}
	return total
}
