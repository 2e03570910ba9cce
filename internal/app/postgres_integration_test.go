package app_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/app"
	"farmops/internal/core/apperror"
	"farmops/internal/domain/documents/delivery"
	"farmops/internal/domain/documents/order"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/infrastructure/storage/postgres"
	"farmops/pkg/logger"
)

// setupPostgres connects to FARMOPS_TEST_DATABASE_URL (migrated with
// `farmctl migrate`) and empties every table.
func setupPostgres(t *testing.T) (context.Context, *app.Services) {
	t.Helper()
	dsn := os.Getenv("FARMOPS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FARMOPS_TEST_DATABASE_URL not set")
	}

	ctx := logger.WithLogger(context.Background(), logger.Nop())
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.CheckSchema(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE product_movements, deliveries, orders, products,
		product_types, slaughtered, sys_sequences, sys_audit, sys_idempotency`)
	require.NoError(t, err)

	st, err := app.NewPostgresStorage(pool, app.PostgresOptions{Tx: postgres.DefaultTxOptions()})
	require.NoError(t, err)
	return ctx, app.NewServices(st, app.Options{})
}

func TestPostgres_ConcurrentOrdersNeverOverReserve(t *testing.T) {
	ctx, svc := setupPostgres(t)

	p := stock.NewProduct("broiler", 10)
	require.NoError(t, svc.Stock.Create(ctx, p))

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int64
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Orders.Create(ctx, order.CreateInput{
				CustomerName: "Race Buyer",
				ProductID:    &p.ID,
				Quantity:     3,
			})
			if err == nil {
				mu.Lock()
				accepted += 3
				mu.Unlock()
				return
			}
			code := ""
			if appErr, ok := apperror.AsAppError(err); ok {
				code = appErr.Code
			}
			assert.Contains(t, []string{apperror.CodeCapacityExceeded, apperror.CodeConcurrencyConflict}, code, "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, accepted, int64(10))
	reserved, err := svc.Calculator.ReservedQuantity(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, accepted, reserved)
}

func TestPostgres_DeliveryLifecycle(t *testing.T) {
	ctx, svc := setupPostgres(t)

	p := stock.NewProduct("broiler", 10)
	require.NoError(t, svc.Stock.Create(ctx, p))

	o, err := svc.Orders.Create(ctx, order.CreateInput{CustomerName: "Green Market", ProductID: &p.ID, Quantity: 6})
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-\d{4}-\d{5}$`, o.Number)

	d, err := svc.Deliveries.Create(ctx, delivery.CreateInput{OrderID: &o.ID, QuantityDelivered: 4})
	require.NoError(t, err)

	got, err := svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, got.Status)
	assert.Equal(t, int64(4), got.Delivered)

	qty := int64(6)
	_, err = svc.Deliveries.Update(ctx, d.ID, delivery.UpdateInput{QuantityDelivered: &qty})
	require.NoError(t, err)

	product, err := svc.Stock.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), product.PackagedQuantity)

	got, err = svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusFulfilled, got.Status)

	require.NoError(t, svc.Deliveries.Delete(ctx, d.ID))
	product, err = svc.Stock.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), product.PackagedQuantity)

	report, err := svc.Reconciliation.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}
