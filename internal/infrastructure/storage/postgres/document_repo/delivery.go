package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/documents/delivery"
	"farmops/internal/infrastructure/storage/postgres"
)

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	*BaseDocumentRepo[*delivery.Delivery]
}

var _ delivery.Repository = (*DeliveryRepo)(nil)

// NewDeliveryRepo creates a new delivery repository.
func NewDeliveryRepo(txm *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			deliveriesTable, "delivery",
			postgres.ExtractDBColumns[delivery.Delivery](),
			[]string{"recipient_name", "number"},
			"delivery_date DESC",
			func() *delivery.Delivery { return &delivery.Delivery{} },
		),
	}
}

// Update writes d with an optimistic version check.
func (r *DeliveryRepo) Update(ctx context.Context, d *delivery.Delivery) error {
	if err := r.BaseDocumentRepo.Update(ctx, d); err != nil {
		return err
	}
	d.Version++
	return nil
}

// List returns deliveries, newest delivery date first.
func (r *DeliveryRepo) List(ctx context.Context, filter delivery.ListFilter) (domain.ListResult[*delivery.Delivery], error) {
	var where []squirrel.Sqlizer
	if filter.OrderID != nil {
		where = append(where, squirrel.Eq{"order_id": *filter.OrderID})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{"delivery_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{"delivery_date": *filter.DateTo})
	}
	return r.BaseDocumentRepo.List(ctx, where, filter.ListFilter)
}

// DeliveredQuantity sums the order's deliveries, leaving out excludeDeliveryID.
func (r *DeliveryRepo) DeliveredQuantity(ctx context.Context, orderID id.ID, excludeDeliveryID *id.ID) (int64, error) {
	return deliveredQuantity(ctx, r.querier(ctx), orderID, excludeDeliveryID)
}
