// Package reconciliation sweeps orders and products and repairs or reports
// drift between stored order status, deliveries and reservations.
package reconciliation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/core/tx"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/domain/reservation"
	"farmops/pkg/logger"
)

// DefaultConcurrency bounds the parallel per-entity work of a sweep.
const DefaultConcurrency = 4

// StatusCorrection is an order whose stored status did not match its deliveries.
type StatusCorrection struct {
	OrderID id.ID        `json:"orderId"`
	Status  order.Status `json:"status"`
}

// Violation is a product whose open orders reserve more than is packaged.
type Violation struct {
	ProductID id.ID `json:"productId"`
	Packaged  int64 `json:"packagedQuantity"`
	Reserved  int64 `json:"reservedQuantity"`
}

// Report summarizes one sweep.
type Report struct {
	StartedAt         time.Time          `json:"startedAt"`
	FinishedAt        time.Time          `json:"finishedAt"`
	Orders            int                `json:"orders"`
	Products          int                `json:"products"`
	StatusCorrections []StatusCorrection `json:"statusCorrections"`
	Violations        []Violation        `json:"violations"`
}

// Clean reports whether the sweep found nothing to correct or report.
func (r *Report) Clean() bool {
	return len(r.StatusCorrections) == 0 && len(r.Violations) == 0
}

// OrderSweeper is the part of the order service a sweep needs.
type OrderSweeper interface {
	ActiveIDs(ctx context.Context) ([]id.ID, error)
	RecomputeStatus(ctx context.Context, orderID id.ID) (order.Status, bool, error)
}

// Service runs reconciliation sweeps.
type Service struct {
	orders      OrderSweeper
	stock       *stock.Service
	calculator  *reservation.Calculator
	txManager   tx.Manager
	concurrency int
}

// NewService creates a reconciliation service. concurrency <= 0 means
// DefaultConcurrency.
func NewService(orders OrderSweeper, stockSvc *stock.Service, calculator *reservation.Calculator, txManager tx.Manager, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		orders:      orders,
		stock:       stockSvc,
		calculator:  calculator,
		txManager:   txManager,
		concurrency: concurrency,
	}
}

// Run recomputes the status of every non-cancelled order, then checks the
// capacity invariant of every product under its lock. Recomputation is
// idempotent, so a sweep over consistent data changes nothing. Rows deleted
// while the sweep runs are skipped.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now().UTC()}

	orderIDs, err := s.orders.ActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	report.Orders = len(orderIDs)

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, orderID := range orderIDs {
		g.Go(func() error {
			status, changed, err := s.orders.RecomputeStatus(gctx, orderID)
			if apperror.IsNotFound(err) {
				logger.Debug(gctx, "order vanished during reconciliation", "order_id", orderID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("recompute order %s: %w", orderID, err)
			}
			if changed {
				mu.Lock()
				report.StatusCorrections = append(report.StatusCorrections, StatusCorrection{OrderID: orderID, Status: status})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	productIDs, err := s.stock.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	report.Products = len(productIDs)

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, productID := range productIDs {
		g.Go(func() error {
			v, err := s.checkProduct(gctx, productID)
			if apperror.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("check product %s: %w", productID, err)
			}
			if v != nil {
				mu.Lock()
				report.Violations = append(report.Violations, *v)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()

	for _, v := range report.Violations {
		logger.Warn(ctx, "capacity invariant violated",
			"product_id", v.ProductID,
			"packaged", v.Packaged,
			"reserved", v.Reserved,
		)
	}
	logger.Info(ctx, "reconciliation finished",
		"orders", report.Orders,
		"products", report.Products,
		"status_corrections", len(report.StatusCorrections),
		"violations", len(report.Violations),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (s *Service) checkProduct(ctx context.Context, productID id.ID) (*Violation, error) {
	var v *Violation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.stock.Lock(ctx, &productID)
		if err != nil {
			return err
		}
		product := locked[productID]

		reserved, err := s.calculator.ReservedQuantity(ctx, productID, nil)
		if err != nil {
			return err
		}
		if reserved > product.PackagedQuantity {
			v = &Violation{ProductID: productID, Packaged: product.PackagedQuantity, Reserved: reserved}
		}
		return nil
	})
	return v, err
}
