// Package catalog_repo provides read access to the reference catalogs:
// the product type price list and slaughter events.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmops/internal/core/id"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/infrastructure/storage/postgres"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// ProductTypeRepo implements product_type.Repository.
type ProductTypeRepo struct {
	txm *postgres.TxManager
}

var _ product_type.Repository = (*ProductTypeRepo)(nil)

// NewProductTypeRepo creates a new product type repository.
func NewProductTypeRepo(txm *postgres.TxManager) *ProductTypeRepo {
	return &ProductTypeRepo{txm: txm}
}

// GetByName matches on the trimmed lowercase name.
func (r *ProductTypeRepo) GetByName(ctx context.Context, name string) (*product_type.ProductType, error) {
	sql, args, err := builder.Select("id", "name", "price").
		From("product_types").
		Where(squirrel.Expr("lower(btrim(name)) = ?", product_type.NormalizeName(name))).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var pt product_type.ProductType
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &pt, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product type: %w", err)
	}
	return &pt, nil
}

// Put inserts or replaces a price list row by normalized name.
func (r *ProductTypeRepo) Put(ctx context.Context, pt product_type.ProductType) error {
	if id.IsNil(pt.ID) {
		pt.ID = id.New()
	}
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO product_types (id, name, price)
		VALUES ($1, $2, $3)
		ON CONFLICT ((lower(btrim(name)))) DO UPDATE SET price = EXCLUDED.price
	`, pt.ID, product_type.NormalizeName(pt.Name), pt.Price)
	if err != nil {
		return fmt.Errorf("upsert product type: %w", postgres.TranslateError(err))
	}
	return nil
}

// SlaughterRepo implements slaughter.Repository.
type SlaughterRepo struct {
	txm *postgres.TxManager
}

var _ slaughter.Repository = (*SlaughterRepo)(nil)

// NewSlaughterRepo creates a new slaughter repository.
func NewSlaughterRepo(txm *postgres.TxManager) *SlaughterRepo {
	return &SlaughterRepo{txm: txm}
}

func (r *SlaughterRepo) GetByID(ctx context.Context, slaughterID id.ID) (*slaughter.Slaughtered, error) {
	sql, args, err := builder.Select("id", "batch_id", "slaughter_date", "quantity", "avg_weight").
		From("slaughtered").
		Where(squirrel.Eq{"id": slaughterID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s slaughter.Slaughtered
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slaughter: %w", err)
	}
	return &s, nil
}

// Put inserts or replaces a slaughter event.
func (r *SlaughterRepo) Put(ctx context.Context, s slaughter.Slaughtered) error {
	if id.IsNil(s.ID) {
		s.ID = id.New()
	}
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO slaughtered (id, batch_id, slaughter_date, quantity, avg_weight)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id,
			slaughter_date = EXCLUDED.slaughter_date,
			quantity = EXCLUDED.quantity,
			avg_weight = EXCLUDED.avg_weight
	`, s.ID, s.BatchID, s.SlaughterDate, s.Quantity, s.AvgWeight)
	if err != nil {
		return fmt.Errorf("upsert slaughter: %w", postgres.TranslateError(err))
	}
	return nil
}
