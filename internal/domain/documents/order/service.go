package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/core/numerator"
	"farmops/internal/core/tx"
	"farmops/internal/core/types"
	"farmops/internal/domain"
	"farmops/internal/domain/audit"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/domain/pricing"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/domain/reservation"
	"farmops/pkg/logger"
)

// Service provides business operations for orders.
type Service struct {
	repo         Repository
	stock        *stock.Service
	calculator   *reservation.Calculator
	productTypes product_type.Repository
	slaughters   slaughter.Repository
	numerator    numerator.Generator
	audit        audit.Recorder
	txManager    tx.Manager
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo         Repository
	Stock        *stock.Service
	Calculator   *reservation.Calculator
	ProductTypes product_type.Repository
	Slaughters   slaughter.Repository
	Numerator    numerator.Generator
	Audit        audit.Recorder
	TxManager    tx.Manager
}

// NewService creates a new order service.
func NewService(d Deps) *Service {
	if d.Audit == nil {
		d.Audit = audit.Noop{}
	}
	return &Service{
		repo:         d.Repo,
		stock:        d.Stock,
		calculator:   d.Calculator,
		productTypes: d.ProductTypes,
		slaughters:   d.Slaughters,
		numerator:    d.Numerator,
		audit:        d.Audit,
		txManager:    d.TxManager,
	}
}

// Create validates capacity, resolves pricing and stores a new pending order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	o := NewOrder(in.CustomerName, in.Quantity)
	if !in.OrderDate.IsZero() {
		o.OrderDate = in.OrderDate
	}
	o.ProductID = in.ProductID
	o.ProductType = strings.TrimSpace(in.ProductType)
	o.ManualUnitWeightKg = in.ManualUnitWeightKg
	o.Notes = in.Notes
	audit.StampCreated(ctx, &o.BaseDocument)

	if err := o.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var product *stock.Product
		if o.ProductID != nil {
			locked, err := s.stock.Lock(ctx, o.ProductID)
			if err != nil {
				return err
			}
			product = locked[*o.ProductID]
			if err := s.calculator.Check(ctx, product, o.Quantity, nil); err != nil {
				return err
			}
			if o.ProductType == "" {
				o.ProductType = product.Type
			}
		}

		if err := s.applyPricing(ctx, o, product, in.UnitPrice, in.TotalAmount); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(numerator.PrefixOrder),
			&numerator.Options{Strategy: NumeratorStrategy}, o.OrderDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.Number = number

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityOrder,
			EntityID:   o.ID,
			Action:     audit.ActionCreate,
			Changes:    o,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"id", o.ID,
		"number", o.Number,
		"mode", o.Mode(),
		"quantity", o.Quantity,
		"total_amount", o.TotalAmount.String(),
	)
	return o, nil
}

// Update applies a partial update. Capacity is re-checked against the
// order's current product, excluding the order's own reservation.
func (s *Service) Update(ctx context.Context, orderID id.ID, in UpdateInput) (*Order, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("value", string(*in.Status))
	}

	var updated *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		productID := current.ProductID
		switch {
		case in.ClearProductID:
			productID = nil
		case in.ProductID != nil:
			productID = in.ProductID
		}

		products, err := s.stock.Lock(ctx, current.ProductID, productID)
		if err != nil {
			return err
		}
		orders, err := s.repo.GetForUpdate(ctx, []id.ID{orderID})
		if err != nil {
			return err
		}
		o := orders[orderID]
		if !id.Equal(o.ProductID, current.ProductID) {
			return apperror.NewConcurrencyConflict("order", orderID)
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != o.Version {
			return apperror.NewConcurrencyConflict("order", orderID).
				WithDetail("expected_version", *in.ExpectedVersion).
				WithDetail("actual_version", o.Version)
		}

		before := *o
		linkChanged := applyUpdate(o, in, productID)
		audit.StampUpdated(ctx, &o.BaseDocument)
		if err := o.Validate(ctx); err != nil {
			return err
		}

		delivered, err := s.repo.DeliveredQuantity(ctx, orderID)
		if err != nil {
			return fmt.Errorf("delivered quantity: %w", err)
		}
		if o.Quantity < delivered {
			return apperror.NewValidation("quantity cannot be less than the quantity already delivered").
				WithDetail("field", "quantity").
				WithDetail("delivered", delivered)
		}

		switch {
		case in.Status == nil:
			o.Status = DeriveStatus(before.Status, o.Quantity, delivered)
		case *in.Status == StatusCancelled:
			o.Status = StatusCancelled
		default:
			o.Status = DeriveStatus(StatusPending, o.Quantity, delivered)
		}

		var product *stock.Product
		if o.ProductID != nil {
			product = products[*o.ProductID]
			if o.Status.IsOpen() {
				outstanding := max(o.Quantity-delivered, 0)
				if err := s.calculator.Check(ctx, product, outstanding, &orderID); err != nil {
					return err
				}
			}
		}

		unitPrice := types.NullFromPtr(in.UnitPrice)
		if !unitPrice.Valid && !linkChanged {
			unitPrice = types.Null(before.UnitPrice)
		}
		if err := s.applyPricing(ctx, o, product, unitPrice, types.NullFromPtr(in.TotalAmount)); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		updated = o

		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityOrder,
			EntityID:   o.ID,
			Action:     audit.ActionUpdate,
			Changes:    audit.Change{Before: before, After: o},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order updated",
		"id", updated.ID,
		"number", updated.Number,
		"status", updated.Status,
		"version", updated.Version,
	)
	return updated, nil
}

// applyUpdate copies the set fields of in onto o and reports whether the
// product link (product or product type) changed.
func applyUpdate(o *Order, in UpdateInput, productID *id.ID) bool {
	linkChanged := !id.Equal(o.ProductID, productID)
	o.ProductID = productID

	if in.OrderDate != nil {
		o.OrderDate = *in.OrderDate
	}
	if in.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.ProductType != nil {
		pt := strings.TrimSpace(*in.ProductType)
		if product_type.NormalizeName(pt) != product_type.NormalizeName(o.ProductType) {
			linkChanged = true
		}
		o.ProductType = pt
	}
	if in.Quantity != nil {
		o.Quantity = *in.Quantity
	}
	if in.ManualUnitWeightKg != nil {
		if in.ManualUnitWeightKg.IsZero() {
			o.ManualUnitWeightKg = decimal.NullDecimal{}
		} else {
			o.ManualUnitWeightKg = types.Null(*in.ManualUnitWeightKg)
		}
	}
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	return linkChanged
}

// Delete removes an order unconditionally. Its deliveries keep their stock
// effect and lose the link.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		orders, err := s.repo.GetForUpdate(ctx, []id.ID{orderID})
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityOrder,
			EntityID:   orderID,
			Action:     audit.ActionDelete,
			Changes:    orders[orderID],
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order deleted", "id", orderID)
	return nil
}

// GetByID returns the stored order.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// Get returns the order with its delivered and outstanding quantities.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*View, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	delivered, err := s.repo.DeliveredQuantity(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("delivered quantity: %w", err)
	}
	return NewView(o, delivered), nil
}

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Lock takes row locks on the given orders in a deterministic order.
// Callers must already hold the locks of the products involved.
func (s *Service) Lock(ctx context.Context, orderIDs ...*id.ID) (map[id.ID]*Order, error) {
	ids := id.SortedUnique(orderIDs...)
	if len(ids) == 0 {
		return map[id.ID]*Order{}, nil
	}
	return s.repo.GetForUpdate(ctx, ids)
}

// RecomputeStatus derives the order status from its deliveries and stores it
// when it changed. Cancelled orders are left alone. Running it twice without
// an intervening delivery change is a no-op the second time.
func (s *Service) RecomputeStatus(ctx context.Context, orderID id.ID) (Status, bool, error) {
	var (
		status  Status
		changed bool
	)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		orders, err := s.repo.GetForUpdate(ctx, []id.ID{orderID})
		if err != nil {
			return err
		}
		o := orders[orderID]

		delivered, err := s.repo.DeliveredQuantity(ctx, orderID)
		if err != nil {
			return fmt.Errorf("delivered quantity: %w", err)
		}

		status = DeriveStatus(o.Status, o.Quantity, delivered)
		if status == o.Status {
			return nil
		}
		changed = true

		if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityOrder,
			EntityID:   orderID,
			Action:     audit.ActionStatusChange,
			Changes: map[string]any{
				"from":      o.Status,
				"to":        status,
				"delivered": delivered,
				"quantity":  o.Quantity,
			},
		})
	})
	if err != nil {
		return "", false, err
	}

	if changed {
		logger.Info(ctx, "order status recomputed", "id", orderID, "status", status)
	}
	return status, changed, nil
}

// ActiveIDs returns the IDs of all orders that are not cancelled.
func (s *Service) ActiveIDs(ctx context.Context) ([]id.ID, error) {
	return s.repo.ActiveIDs(ctx)
}

// Availability returns the reservation read model of a product.
func (s *Service) Availability(ctx context.Context, productID id.ID) (reservation.Availability, error) {
	return s.calculator.Availability(ctx, productID, nil)
}

func (s *Service) applyPricing(ctx context.Context, o *Order, product *stock.Product, unitPrice, totalAmount decimal.NullDecimal) error {
	var sl *slaughter.Slaughtered
	if product != nil && product.SlaughteredID != nil {
		var err error
		if sl, err = s.slaughters.GetByID(ctx, *product.SlaughteredID); err != nil {
			return fmt.Errorf("load slaughter: %w", err)
		}
	}

	var pt *product_type.ProductType
	if name := pricing.TypeName(o.ProductType, product); name != "" {
		var err error
		if pt, err = s.productTypes.GetByName(ctx, name); err != nil {
			return fmt.Errorf("load product type: %w", err)
		}
	}

	res := pricing.Resolve(pricing.Input{
		Quantity:           o.Quantity,
		ManualUnitWeightKg: o.ManualUnitWeightKg,
		UnitPrice:          unitPrice,
		TotalAmount:        totalAmount,
	}, product, sl, pt)

	o.UnitWeightKg = res.UnitWeightKg
	o.UnitPrice = res.PricePerKg
	o.TotalAmount = res.TotalAmount

	logger.Debug(ctx, "order priced",
		"weight_source", res.WeightSource,
		"price_source", res.PriceSource,
		"total_source", res.TotalSource,
	)
	return nil
}
