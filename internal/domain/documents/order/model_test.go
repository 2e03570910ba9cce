package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"farmops/internal/core/apperror"
	"farmops/internal/core/id"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		current   Status
		quantity  int64
		delivered int64
		want      Status
	}{
		{"nothing delivered", StatusConfirmed, 10, 0, StatusPending},
		{"partly delivered", StatusPending, 10, 4, StatusConfirmed},
		{"fully delivered", StatusConfirmed, 10, 10, StatusFulfilled},
		{"over delivered", StatusPending, 10, 12, StatusFulfilled},
		{"back below quantity", StatusFulfilled, 10, 6, StatusConfirmed},
		{"cancelled is sticky", StatusCancelled, 10, 10, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.current, tt.quantity, tt.delivered)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, DeriveStatus(got, tt.quantity, tt.delivered))
		})
	}
}

func TestStatusIsOpen(t *testing.T) {
	assert.True(t, StatusPending.IsOpen())
	assert.True(t, StatusConfirmed.IsOpen())
	assert.False(t, StatusFulfilled.IsOpen())
	assert.False(t, StatusCancelled.IsOpen())
}

func TestOrderMode(t *testing.T) {
	o := NewOrder("Acme", 1)
	o.ProductType = "broiler"
	assert.Equal(t, ModeUnmanaged, o.Mode())

	o.ProductID = id.Ptr(id.New())
	assert.Equal(t, ModeManaged, o.Mode())
}

func TestOrderValidate(t *testing.T) {
	ctx := context.Background()

	o := NewOrder("Acme", 0)
	o.ProductType = "broiler"
	assert.True(t, apperror.HasCode(o.Validate(ctx), apperror.CodeValidation))

	o = NewOrder("Acme", 3)
	err := o.Validate(ctx)
	appErr, ok := apperror.AsAppError(err)
	if assert.True(t, ok) {
		assert.Equal(t, "productId", appErr.Details["field"])
	}

	o = NewOrder("  ", 3)
	o.ProductType = "broiler"
	assert.Error(t, o.Validate(ctx))

	o = NewOrder("Acme", 3)
	o.ProductType = "broiler"
	assert.NoError(t, o.Validate(ctx))
}

func TestNewViewOutstandingNeverNegative(t *testing.T) {
	o := NewOrder("Acme", 5)
	v := NewView(o, 7)
	assert.Equal(t, int64(0), v.Outstanding)
	assert.Equal(t, ModeUnmanaged, v.Mode)
}
