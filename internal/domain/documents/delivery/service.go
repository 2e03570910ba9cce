package delivery

import (
	"context"
	"fmt"
	"strings"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/core/numerator"
	"farmops/internal/core/tx"
	"farmops/internal/domain"
	"farmops/internal/domain/audit"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/registers/stock"
	"farmops/pkg/logger"
)

// Service records deliveries and keeps product stock and order status in
// step with them. Every mutation locks products, then orders, then the
// delivery row, all within one transaction.
type Service struct {
	repo      Repository
	orders    *order.Service
	stock     *stock.Service
	numerator numerator.Generator
	audit     audit.Recorder
	txManager tx.Manager
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	Orders    *order.Service
	Stock     *stock.Service
	Numerator numerator.Generator
	Audit     audit.Recorder
	TxManager tx.Manager
}

// NewService creates a new delivery service.
func NewService(d Deps) *Service {
	if d.Audit == nil {
		d.Audit = audit.Noop{}
	}
	return &Service{
		repo:      d.Repo,
		orders:    d.Orders,
		stock:     d.Stock,
		numerator: d.Numerator,
		audit:     d.Audit,
		txManager: d.TxManager,
	}
}

// Create records a delivery against an order, consumes the product stock of
// managed orders and recomputes the order status.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Delivery, error) {
	if in.OrderID == nil {
		return nil, apperror.NewValidation("order is required").WithDetail("field", "orderId")
	}

	d := NewDelivery(*in.OrderID, in.QuantityDelivered)
	if !in.DeliveryDate.IsZero() {
		d.DeliveryDate = in.DeliveryDate
	}
	d.RecipientName = strings.TrimSpace(in.RecipientName)
	d.Address = in.Address
	d.Notes = in.Notes
	audit.StampCreated(ctx, &d.BaseDocument)

	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.lockOrder(ctx, *d.OrderID)
		if err != nil {
			return err
		}
		d.ProductID = consumedProduct(o)

		if o.Status == order.StatusCancelled {
			return apperror.NewOrderCancelled(o.ID.String())
		}

		delivered, err := s.repo.DeliveredQuantity(ctx, o.ID, nil)
		if err != nil {
			return fmt.Errorf("delivered quantity: %w", err)
		}
		remaining := max(o.Quantity-delivered, 0)
		if d.QuantityDelivered > remaining {
			return apperror.NewOverDelivery(o.ID.String(), d.QuantityDelivered, remaining)
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(numerator.PrefixDelivery),
			&numerator.Options{Strategy: NumeratorStrategy}, d.DeliveryDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		d.Number = number

		if err := s.repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}

		if d.ProductID != nil {
			ref := stock.Ref{Reason: stock.ReasonDelivered, OrderID: &o.ID, DeliveryID: &d.ID}
			if _, err := s.stock.Adjust(ctx, *d.ProductID, -d.QuantityDelivered, ref); err != nil {
				return err
			}
		}

		if _, _, err := s.orders.RecomputeStatus(ctx, o.ID); err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityDelivery,
			EntityID:   d.ID,
			Action:     audit.ActionCreate,
			Changes:    d,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery created",
		"id", d.ID,
		"number", d.Number,
		"order_id", d.OrderID,
		"quantity", d.QuantityDelivered,
	)
	return d, nil
}

// Update edits a delivery. Stock is corrected by the difference on the
// product the delivery consumed when it stays on the same order. When it
// moves, that product gets its stock back and the new order's product is
// charged. Both orders get their status recomputed.
func (s *Service) Update(ctx context.Context, deliveryID id.ID, in UpdateInput) (*Delivery, error) {
	var updated *Delivery

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}
		if in.ClearOrderID && current.OrderID != nil {
			return apperror.NewValidation("order link of a delivery cannot be cleared").
				WithDetail("field", "orderId")
		}

		newOrderID := current.OrderID
		if in.OrderID != nil {
			newOrderID = in.OrderID
		}

		orders, err := s.lockOrders(ctx, current.ProductID, current.OrderID, newOrderID)
		if err != nil {
			return err
		}

		d, err := s.lockDelivery(ctx, current)
		if err != nil {
			return err
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != d.Version {
			return apperror.NewConcurrencyConflict("delivery", deliveryID).
				WithDetail("expected_version", *in.ExpectedVersion).
				WithDetail("actual_version", d.Version)
		}

		before := *d
		applyUpdate(d, in, newOrderID)
		audit.StampUpdated(ctx, &d.BaseDocument)
		if err := d.Validate(ctx); err != nil {
			return err
		}

		if d.OrderID != nil {
			newOrder := orders[*d.OrderID]
			if !id.Equal(before.OrderID, d.OrderID) {
				d.ProductID = consumedProduct(newOrder)
			}
			if newOrder.Status == order.StatusCancelled && addsQuantity(&before, d) {
				return apperror.NewOrderCancelled(newOrder.ID.String())
			}
			delivered, err := s.repo.DeliveredQuantity(ctx, newOrder.ID, &deliveryID)
			if err != nil {
				return fmt.Errorf("delivered quantity: %w", err)
			}
			remaining := max(newOrder.Quantity-delivered, 0)
			if d.QuantityDelivered > remaining {
				return apperror.NewOverDelivery(newOrder.ID.String(), d.QuantityDelivered, remaining)
			}
		}

		if err := s.moveStock(ctx, &before, d); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery: %w", err)
		}

		for _, orderID := range id.SortedUnique(before.OrderID, d.OrderID) {
			if _, _, err := s.orders.RecomputeStatus(ctx, orderID); err != nil {
				return err
			}
		}

		updated = d
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityDelivery,
			EntityID:   d.ID,
			Action:     audit.ActionUpdate,
			Changes:    audit.Change{Before: before, After: d},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery updated",
		"id", updated.ID,
		"number", updated.Number,
		"order_id", updated.OrderID,
		"quantity", updated.QuantityDelivered,
	)
	return updated, nil
}

// addsQuantity reports whether after puts more on its order than before did.
func addsQuantity(before, after *Delivery) bool {
	if !id.Equal(before.OrderID, after.OrderID) {
		return true
	}
	return after.QuantityDelivered > before.QuantityDelivered
}

func applyUpdate(d *Delivery, in UpdateInput, orderID *id.ID) {
	d.OrderID = orderID
	if in.DeliveryDate != nil {
		d.DeliveryDate = *in.DeliveryDate
	}
	if in.RecipientName != nil {
		d.RecipientName = strings.TrimSpace(*in.RecipientName)
	}
	if in.QuantityDelivered != nil {
		d.QuantityDelivered = *in.QuantityDelivered
	}
	if in.Address != nil {
		d.Address = *in.Address
	}
	if in.Notes != nil {
		d.Notes = *in.Notes
	}
}

// moveStock applies the inventory effect of changing a delivery from before
// to after. Stock always moves on the product each side consumed, never on
// the order's current product.
func (s *Service) moveStock(ctx context.Context, before, after *Delivery) error {
	if id.Equal(before.ProductID, after.ProductID) && id.Equal(before.OrderID, after.OrderID) {
		if after.ProductID == nil {
			return nil
		}
		ref := stock.Ref{Reason: stock.ReasonDeliveryAdjusted, OrderID: after.OrderID, DeliveryID: &after.ID}
		_, err := s.stock.Adjust(ctx, *after.ProductID, before.QuantityDelivered-after.QuantityDelivered, ref)
		return err
	}

	if before.ProductID != nil {
		ref := stock.Ref{Reason: stock.ReasonDeliveryReversed, OrderID: before.OrderID, DeliveryID: &before.ID}
		if _, err := s.stock.Adjust(ctx, *before.ProductID, before.QuantityDelivered, ref); err != nil {
			return err
		}
	}
	if after.ProductID != nil {
		ref := stock.Ref{Reason: stock.ReasonDelivered, OrderID: after.OrderID, DeliveryID: &after.ID}
		if _, err := s.stock.Adjust(ctx, *after.ProductID, -after.QuantityDelivered, ref); err != nil {
			return err
		}
	}
	return nil
}

// consumedProduct returns a copy of the order's product link.
func consumedProduct(o *order.Order) *id.ID {
	if o.ProductID == nil {
		return nil
	}
	return id.Ptr(*o.ProductID)
}

// Delete removes a delivery, returns its quantity to the product it consumed
// and recomputes the order status. Orphaned deliveries return their stock too.
func (s *Service) Delete(ctx context.Context, deliveryID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}

		if _, err := s.lockOrders(ctx, current.ProductID, current.OrderID); err != nil {
			return err
		}

		d, err := s.lockDelivery(ctx, current)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, deliveryID); err != nil {
			return fmt.Errorf("delete delivery: %w", err)
		}

		if d.ProductID != nil {
			ref := stock.Ref{Reason: stock.ReasonDeliveryReversed, OrderID: d.OrderID, DeliveryID: &d.ID}
			if _, err := s.stock.Adjust(ctx, *d.ProductID, d.QuantityDelivered, ref); err != nil {
				return err
			}
		}
		if d.OrderID != nil {
			if _, _, err := s.orders.RecomputeStatus(ctx, *d.OrderID); err != nil {
				return err
			}
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityDelivery,
			EntityID:   deliveryID,
			Action:     audit.ActionDelete,
			Changes:    d,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "delivery deleted", "id", deliveryID)
	return nil
}

// GetByID returns a delivery.
func (s *Service) GetByID(ctx context.Context, deliveryID id.ID) (*Delivery, error) {
	return s.repo.GetByID(ctx, deliveryID)
}

// List retrieves deliveries with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Delivery], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// lockOrder locks a single order and its product.
func (s *Service) lockOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	orders, err := s.lockOrders(ctx, nil, &orderID)
	if err != nil {
		return nil, err
	}
	return orders[orderID], nil
}

// lockOrders reads the orders to learn their products, locks those products
// together with consumed and then the orders themselves. An order whose
// product link changed between the read and the lock is a ConcurrencyConflict.
func (s *Service) lockOrders(ctx context.Context, consumed *id.ID, orderIDs ...*id.ID) (map[id.ID]*order.Order, error) {
	ids := id.SortedUnique(orderIDs...)

	productIDs := make([]*id.ID, 0, len(ids)+1)
	productIDs = append(productIDs, consumed)
	seen := make(map[id.ID]*id.ID, len(ids))
	for _, orderID := range ids {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		productIDs = append(productIDs, o.ProductID)
		seen[orderID] = o.ProductID
	}

	if _, err := s.stock.Lock(ctx, productIDs...); err != nil {
		return nil, err
	}

	locked, err := s.orders.Lock(ctx, orderIDs...)
	if err != nil {
		return nil, err
	}
	for orderID, productID := range seen {
		if !id.Equal(locked[orderID].ProductID, productID) {
			return nil, apperror.NewConcurrencyConflict("order", orderID)
		}
	}
	return locked, nil
}

// lockDelivery locks the delivery row and checks that its order and product
// links are the ones the caller locked.
func (s *Service) lockDelivery(ctx context.Context, current *Delivery) (*Delivery, error) {
	d, err := s.repo.GetForUpdate(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if !id.Equal(d.OrderID, current.OrderID) || !id.Equal(d.ProductID, current.ProductID) {
		return nil, apperror.NewConcurrencyConflict("delivery", current.ID)
	}
	return d, nil
}
