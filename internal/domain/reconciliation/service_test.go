package reconciliation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/app"
	"farmops/internal/core/id"
	"farmops/internal/domain/documents/delivery"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/reconciliation"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/infrastructure/storage/memory"
	"farmops/pkg/logger"
)

func TestRun_CleanDataIsUntouched(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), logger.Nop())
	svc := app.NewServices(app.NewMemoryStorage(memory.NewStore()), app.Options{ReconcileConcurrency: 2})

	p := stock.NewProduct("broiler", 10)
	require.NoError(t, svc.Stock.Create(ctx, p))
	o, err := svc.Orders.Create(ctx, order.CreateInput{CustomerName: "A", ProductID: &p.ID, Quantity: 6})
	require.NoError(t, err)
	_, err = svc.Deliveries.Create(ctx, delivery.CreateInput{OrderID: &o.ID, QuantityDelivered: 2})
	require.NoError(t, err)

	for range 2 {
		report, err := svc.Reconciliation.Run(ctx)
		require.NoError(t, err)
		assert.True(t, report.Clean())
		assert.Equal(t, 1, report.Orders)
		assert.Equal(t, 1, report.Products)
	}
}

func TestRun_CorrectsStatusAndReportsViolations(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), logger.Nop())
	store := memory.NewStore()
	svc := app.NewServices(app.NewMemoryStorage(store), app.Options{})

	p := stock.NewProduct("broiler", 10)
	require.NoError(t, svc.Stock.Create(ctx, p))
	o, err := svc.Orders.Create(ctx, order.CreateInput{CustomerName: "A", ProductID: &p.ID, Quantity: 8})
	require.NoError(t, err)

	require.NoError(t, store.Orders().UpdateStatus(ctx, o.ID, order.StatusFulfilled))
	require.NoError(t, store.Products().SetPackagedQuantity(ctx, p.ID, 5))

	report, err := svc.Reconciliation.Run(ctx)
	require.NoError(t, err)

	require.Len(t, report.StatusCorrections, 1)
	assert.Equal(t, o.ID, report.StatusCorrections[0].OrderID)
	assert.Equal(t, order.StatusPending, report.StatusCorrections[0].Status)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, int64(5), report.Violations[0].Packaged)
	assert.Equal(t, int64(8), report.Violations[0].Reserved)

	again, err := svc.Reconciliation.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.StatusCorrections)
}

// vanishingOrders lists one order that no longer exists, as if it was
// deleted between listing and recomputing.
type vanishingOrders struct {
	*order.Service
	deleted id.ID
}

func (v vanishingOrders) ActiveIDs(ctx context.Context) ([]id.ID, error) {
	ids, err := v.Service.ActiveIDs(ctx)
	return append(ids, v.deleted), err
}

func TestRun_SkipsOrdersDeletedMidSweep(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), logger.Nop())
	storage := app.NewMemoryStorage(memory.NewStore())
	svc := app.NewServices(storage, app.Options{})

	p := stock.NewProduct("broiler", 10)
	require.NoError(t, svc.Stock.Create(ctx, p))
	o, err := svc.Orders.Create(ctx, order.CreateInput{CustomerName: "A", ProductID: &p.ID, Quantity: 4})
	require.NoError(t, err)
	gone, err := svc.Orders.Create(ctx, order.CreateInput{CustomerName: "B", ProductID: &p.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.Orders.Delete(ctx, gone.ID))

	sweep := reconciliation.NewService(vanishingOrders{Service: svc.Orders, deleted: gone.ID},
		svc.Stock, svc.Calculator, storage.TxManager, 2)

	report, err := sweep.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Orders)
	assert.True(t, report.Clean())

	stored, err := svc.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
}
