package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"farmops/internal/core/apperror"
)

func TestTranslateError(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := TranslateError(fmt.Errorf("lock product: %w", &pgconn.PgError{Code: code, TableName: "products"}))
		assert.True(t, apperror.IsConcurrencyConflict(err), code)
	}

	err := TranslateError(&pgconn.PgError{Code: "23503", ConstraintName: "deliveries_order_id_fkey"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	plain := errors.New("connection reset")
	assert.Same(t, plain, TranslateError(plain))

	appErr := apperror.NewNotFound("order", "x")
	assert.Same(t, appErr, TranslateError(appErr))
	assert.Nil(t, TranslateError(nil))
}
