package memory

import (
	"context"

	"farmops/internal/core/id"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
)

// ProductTypeRepo implements product_type.Repository.
type ProductTypeRepo struct {
	s *Store
}

var _ product_type.Repository = (*ProductTypeRepo)(nil)

func (r *ProductTypeRepo) GetByName(ctx context.Context, name string) (*product_type.ProductType, error) {
	var out *product_type.ProductType
	err := r.s.view(ctx, func(st *state) error {
		if pt, ok := st.productTypes[product_type.NormalizeName(name)]; ok {
			out = &pt
		}
		return nil
	})
	return out, err
}

// Put inserts or replaces a product type.
func (r *ProductTypeRepo) Put(ctx context.Context, pt product_type.ProductType) error {
	return r.s.view(ctx, func(st *state) error {
		if id.IsNil(pt.ID) {
			pt.ID = id.New()
		}
		st.productTypes[product_type.NormalizeName(pt.Name)] = pt
		return nil
	})
}

// SlaughterRepo implements slaughter.Repository.
type SlaughterRepo struct {
	s *Store
}

var _ slaughter.Repository = (*SlaughterRepo)(nil)

func (r *SlaughterRepo) GetByID(ctx context.Context, slaughterID id.ID) (*slaughter.Slaughtered, error) {
	var out *slaughter.Slaughtered
	err := r.s.view(ctx, func(st *state) error {
		if sl, ok := st.slaughters[slaughterID]; ok {
			out = &sl
		}
		return nil
	})
	return out, err
}

// Put inserts or replaces a slaughter event.
func (r *SlaughterRepo) Put(ctx context.Context, sl slaughter.Slaughtered) error {
	return r.s.view(ctx, func(st *state) error {
		st.slaughters[sl.ID] = sl
		return nil
	})
}
