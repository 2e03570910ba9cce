package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
	"farmops/internal/domain"
	"farmops/internal/domain/registers/stock"
	"farmops/internal/infrastructure/storage/memory"
	"farmops/pkg/logger"
)

func newService() (context.Context, *memory.Store, *stock.Service) {
	store := memory.NewStore()
	ctx := logger.WithLogger(context.Background(), logger.Nop())
	return ctx, store, stock.NewService(store.Products(), store)
}

func TestCreate_NormalizesTypeAndRecordsReceipt(t *testing.T) {
	ctx, _, svc := newService()
	p := stock.NewProduct("  Broiler ", 12)
	require.NoError(t, svc.Create(ctx, p))

	stored, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "broiler", stored.Type)

	movements, err := svc.Movements(ctx, p.ID, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, movements.Items, 1)
	assert.Equal(t, stock.ReasonReceived, movements.Items[0].Reason)
	assert.Equal(t, int64(12), movements.Items[0].BalanceAfter)
}

func TestCreate_RejectsNegativeQuantity(t *testing.T) {
	ctx, _, svc := newService()
	err := svc.Create(ctx, stock.NewProduct("broiler", -1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestAdjust_NeverGoesNegative(t *testing.T) {
	ctx, store, svc := newService()
	p := stock.NewProduct("broiler", 3)
	require.NoError(t, svc.Create(ctx, p))

	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := svc.Adjust(ctx, p.ID, -4, stock.Ref{Reason: stock.ReasonDelivered})
		return err
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientInventory, appErr.Code)
	assert.Equal(t, int64(4), appErr.Details["requested"])
	assert.Equal(t, int64(3), appErr.Details["available"])

	stored, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.PackagedQuantity)
}

func TestAdjust_RecordsMovement(t *testing.T) {
	ctx, store, svc := newService()
	p := stock.NewProduct("broiler", 3)
	require.NoError(t, svc.Create(ctx, p))
	orderID := id.New()

	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		updated, err := svc.Adjust(ctx, p.ID, -2, stock.Ref{Reason: stock.ReasonDelivered, OrderID: &orderID})
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), updated.PackagedQuantity)
		return nil
	})
	require.NoError(t, err)

	movements, err := svc.Movements(ctx, p.ID, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, movements.Items, 2)
	assert.Equal(t, int64(-2), movements.Items[0].Delta)
	assert.Equal(t, orderID, *movements.Items[0].OrderID)
}

func TestLock_UnknownProduct(t *testing.T) {
	ctx, _, svc := newService()
	missing := id.New()

	_, err := svc.Lock(ctx, &missing, nil)
	assert.True(t, apperror.IsNotFound(err))

	locked, err := svc.Lock(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, locked)
}
