package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessErrorsCarryLimits(t *testing.T) {
	capErr := NewCapacityExceeded("p1", 6, 4)
	assert.Equal(t, http.StatusUnprocessableEntity, capErr.HTTPStatus)
	assert.Equal(t, int64(4), capErr.Details["available"])
	assert.Equal(t, int64(6), capErr.Details["requested"])

	overErr := NewOverDelivery("o1", 11, 4)
	assert.Equal(t, CodeOverDelivery, overErr.Code)
	assert.Equal(t, int64(4), overErr.Details["remaining"])

	invErr := NewInsufficientInventory("p1", 3, 2)
	assert.Equal(t, int64(2), invErr.Details["available"])
}

func TestCapacityMessageNeverNegative(t *testing.T) {
	err := NewCapacityExceeded("p1", 1, -3)
	assert.Contains(t, err.Message, "Only 0 unit(s)")
	assert.Equal(t, int64(-3), err.Details["available"])
}

func TestHelpersUnwrapChains(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", NewConcurrencyConflict("product", "p1"))

	assert.True(t, IsConcurrencyConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(wrapped))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
