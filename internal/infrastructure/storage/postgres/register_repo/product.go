// Package register_repo provides the PostgreSQL product stock register.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/infrastructure/storage/postgres"
)

const (
	productsTable  = "products"
	movementsTable = "product_movements"
)

var (
	productColumns  = postgres.ExtractDBColumns[stock.Product]()
	movementColumns = postgres.ExtractDBColumns[stock.Movement]()
)

// ProductRepo implements stock.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product register repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) Create(ctx context.Context, p *stock.Product) error {
	sql, args, err := r.builder.Insert(productsTable).SetMap(postgres.StructToMap(p)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", postgres.TranslateError(err))
	}
	return nil
}

// CreateBatch bulk-loads products with COPY. It must run in a transaction.
func (r *ProductRepo) CreateBatch(ctx context.Context, products []*stock.Product) (int64, error) {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		m := postgres.StructToMap(p)
		row := make([]any, len(productColumns))
		for i, col := range productColumns {
			row[i] = m[col]
		}
		rows = append(rows, row)
	}
	return postgres.NewBatchInserter(r.txm).CopyFromSlice(ctx, productsTable, productColumns, rows)
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*stock.Product, error) {
	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p stock.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetForUpdate locks the products in ID order so concurrent writers
// always acquire them in the same sequence.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productIDs []id.ID) (map[id.ID]*stock.Product, error) {
	out := make(map[id.ID]*stock.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productIDs}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*stock.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("lock products: %w", postgres.TranslateError(err))
	}
	for _, p := range items {
		out[p.ID] = p
	}
	for _, productID := range productIDs {
		if _, ok := out[productID]; !ok {
			return nil, apperror.NewNotFound("product", productID)
		}
	}
	return out, nil
}

func (r *ProductRepo) SetPackagedQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	sql, args, err := r.builder.Update(productsTable).
		Set("packaged_quantity", quantity).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update packaged quantity: %w", postgres.TranslateError(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

func (r *ProductRepo) ListIDs(ctx context.Context) ([]id.ID, error) {
	sql, args, err := r.builder.Select("id").From(productsTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("select product ids: %w", err)
	}
	return ids, nil
}

func (r *ProductRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	sql, args, err := r.builder.Insert(movementsTable).SetMap(postgres.StructToMap(m)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", postgres.TranslateError(err))
	}
	return nil
}

func (r *ProductRepo) ListMovements(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[*stock.Movement], error) {
	result := domain.ListResult[*stock.Movement]{Limit: filter.Limit, Offset: filter.Offset}
	q := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count movements: %w", err)
	}

	sql, args, err := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(max(filter.Limit, 0))).
		Offset(uint64(max(filter.Offset, 0))).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, q, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select movements: %w", err)
	}
	return result, nil
}
