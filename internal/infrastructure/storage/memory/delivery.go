package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/documents/delivery"
)

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	s *Store
}

var _ delivery.Repository = (*DeliveryRepo)(nil)

func (r *DeliveryRepo) Create(ctx context.Context, d *delivery.Delivery) error {
	return r.s.view(ctx, func(st *state) error {
		if d.OrderID != nil {
			if _, ok := st.orders[*d.OrderID]; !ok {
				return apperror.NewNotFound("order", *d.OrderID)
			}
		}
		st.deliveries[d.ID] = *d
		return nil
	})
}

func (r *DeliveryRepo) GetByID(ctx context.Context, deliveryID id.ID) (*delivery.Delivery, error) {
	var out *delivery.Delivery
	err := r.s.view(ctx, func(st *state) error {
		d, ok := st.deliveries[deliveryID]
		if !ok {
			return apperror.NewNotFound("delivery", deliveryID)
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *DeliveryRepo) GetForUpdate(ctx context.Context, deliveryID id.ID) (*delivery.Delivery, error) {
	return r.GetByID(ctx, deliveryID)
}

func (r *DeliveryRepo) Update(ctx context.Context, d *delivery.Delivery) error {
	return r.s.view(ctx, func(st *state) error {
		stored, ok := st.deliveries[d.ID]
		if !ok {
			return apperror.NewNotFound("delivery", d.ID)
		}
		if stored.Version != d.Version {
			return apperror.NewConcurrencyConflict("delivery", d.ID)
		}
		d.Version++
		st.deliveries[d.ID] = *d
		return nil
	})
}

func (r *DeliveryRepo) Delete(ctx context.Context, deliveryID id.ID) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.deliveries[deliveryID]; !ok {
			return apperror.NewNotFound("delivery", deliveryID)
		}
		delete(st.deliveries, deliveryID)
		return nil
	})
}

func (r *DeliveryRepo) List(ctx context.Context, filter delivery.ListFilter) (domain.ListResult[*delivery.Delivery], error) {
	var all []*delivery.Delivery
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	err := r.s.view(ctx, func(st *state) error {
		for _, d := range st.deliveries {
			if filter.OrderID != nil && !id.Equal(d.OrderID, filter.OrderID) {
				continue
			}
			if filter.DateFrom != nil && d.DeliveryDate.Before(*filter.DateFrom) {
				continue
			}
			if filter.DateTo != nil && d.DeliveryDate.After(*filter.DateTo) {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(d.RecipientName), search) &&
				!strings.Contains(strings.ToLower(d.Number), search) {
				continue
			}
			all = append(all, &d)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*delivery.Delivery]{}, err
	}

	slices.SortFunc(all, func(a, b *delivery.Delivery) int {
		if c := b.DeliveryDate.Compare(a.DeliveryDate); c != 0 {
			return c
		}
		return cmp.Compare(b.Number, a.Number)
	})

	return domain.ListResult[*delivery.Delivery]{
		Items:      page(all, filter.Limit, filter.Offset),
		TotalCount: int64(len(all)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *DeliveryRepo) DeliveredQuantity(ctx context.Context, orderID id.ID, excludeDeliveryID *id.ID) (int64, error) {
	var total int64
	err := r.s.view(ctx, func(st *state) error {
		total = deliveredSum(st, orderID, excludeDeliveryID)
		return nil
	})
	return total, err
}
