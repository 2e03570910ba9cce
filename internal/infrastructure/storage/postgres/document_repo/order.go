package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/reservation"
	"farmops/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	deliveriesTable = "deliveries"
)

// deliveredSubquery sums the deliveries of the outer row o.
const deliveredSubquery = "COALESCE((SELECT SUM(d.quantity_delivered) FROM deliveries d WHERE d.order_id = o.id), 0)"

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*order.Order]
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			ordersTable, "order",
			postgres.ExtractDBColumns[order.Order](),
			[]string{"customer_name", "number"},
			"order_date DESC",
			func() *order.Order { return &order.Order{} },
		),
	}
}

// Update writes o with an optimistic version check.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	if err := r.BaseDocumentRepo.Update(ctx, o); err != nil {
		return err
	}
	o.Version++
	return nil
}

// GetForUpdate locks the orders in ID order.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderIDs []id.ID) (map[id.ID]*order.Order, error) {
	items, err := r.GetManyForUpdate(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[id.ID]*order.Order, len(items))
	for _, o := range items {
		out[o.ID] = o
	}
	for _, orderID := range orderIDs {
		if _, ok := out[orderID]; !ok {
			return nil, apperror.NewNotFound("order", orderID)
		}
	}
	return out, nil
}

// UpdateStatus stores a derived status and increments the version.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status order.Status) error {
	sql, args, err := r.Builder().
		Update(ordersTable).
		Set("status", status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", postgres.TranslateError(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID)
	}
	return nil
}

// List returns orders, newest order date first.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) (domain.ListResult[*order.Order], error) {
	var where []squirrel.Sqlizer
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Mode != nil {
		switch *filter.Mode {
		case order.ModeManaged:
			where = append(where, squirrel.NotEq{"product_id": nil})
		case order.ModeUnmanaged:
			where = append(where, squirrel.Eq{"product_id": nil})
		}
	}
	return r.BaseDocumentRepo.List(ctx, where, filter.ListFilter)
}

// ActiveIDs returns the IDs of every order that is not cancelled.
func (r *OrderRepo) ActiveIDs(ctx context.Context) ([]id.ID, error) {
	sql, args, err := r.Builder().
		Select("id").
		From(ordersTable).
		Where(squirrel.NotEq{"status": order.StatusCancelled}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("select active orders: %w", err)
	}
	return ids, nil
}

// DeliveredQuantity sums the order's deliveries.
func (r *OrderRepo) DeliveredQuantity(ctx context.Context, orderID id.ID) (int64, error) {
	return deliveredQuantity(ctx, r.querier(ctx), orderID, nil)
}

// OpenCommitments implements reservation.Source.
func (r *OrderRepo) OpenCommitments(ctx context.Context, productID id.ID, excludeOrderID *id.ID) ([]reservation.Commitment, error) {
	q := r.Builder().
		Select("o.id AS order_id", "o.quantity", deliveredSubquery+" AS delivered").
		From(ordersTable + " o").
		Where(squirrel.Eq{
			"o.product_id": productID,
			"o.status":     []order.Status{order.StatusPending, order.StatusConfirmed},
		})
	if excludeOrderID != nil {
		q = q.Where(squirrel.NotEq{"o.id": *excludeOrderID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []reservation.Commitment
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select commitments: %w", err)
	}
	return out, nil
}

func deliveredQuantity(ctx context.Context, q postgres.Querier, orderID id.ID, excludeDeliveryID *id.ID) (int64, error) {
	b := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("COALESCE(SUM(quantity_delivered), 0)").
		From(deliveriesTable).
		Where(squirrel.Eq{"order_id": orderID})
	if excludeDeliveryID != nil {
		b = b.Where(squirrel.NotEq{"id": *excludeDeliveryID})
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum deliveries: %w", err)
	}
	return total, nil
}
