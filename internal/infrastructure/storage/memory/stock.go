package memory

import (
	"bytes"
	"context"
	"slices"
	"time"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/registers/stock"
)

// ProductRepo implements stock.Repository.
type ProductRepo struct {
	s *Store
}

var _ stock.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *stock.Product) error {
	return r.s.view(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return apperror.NewValidation("product already exists").WithDetail("id", p.ID.String())
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*stock.Product, error) {
	var out *stock.Product
	err := r.s.view(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		out = &p
		return nil
	})
	return out, err
}

// GetForUpdate returns copies; the store mutex is the lock.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productIDs []id.ID) (map[id.ID]*stock.Product, error) {
	out := make(map[id.ID]*stock.Product, len(productIDs))
	err := r.s.view(ctx, func(st *state) error {
		for _, productID := range productIDs {
			p, ok := st.products[productID]
			if !ok {
				return apperror.NewNotFound("product", productID)
			}
			out[productID] = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) SetPackagedQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	return r.s.view(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		p.PackagedQuantity = quantity
		p.Version++
		p.UpdatedAt = time.Now().UTC()
		st.products[productID] = p
		return nil
	})
}

func (r *ProductRepo) ListIDs(ctx context.Context) ([]id.ID, error) {
	var out []id.ID
	err := r.s.view(ctx, func(st *state) error {
		for productID := range st.products {
			out = append(out, productID)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b id.ID) int { return bytes.Compare(a[:], b[:]) })
	return out, err
}

func (r *ProductRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	return r.s.view(ctx, func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *ProductRepo) ListMovements(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*stock.Movement], error) {
	var all []*stock.Movement
	err := r.s.view(ctx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if m := st.movements[i]; m.ProductID == productID {
				all = append(all, &m)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*stock.Movement]{}, err
	}
	return domain.ListResult[*stock.Movement]{
		Items:      page(all, filter.Limit, filter.Offset),
		TotalCount: int64(len(all)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
