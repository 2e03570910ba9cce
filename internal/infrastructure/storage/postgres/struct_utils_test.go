package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"farmops/internal/domain/documents/order"
)

func TestExtractDBColumnsWalksEmbeddedDocument(t *testing.T) {
	cols := ExtractDBColumns[order.Order]()

	for _, expected := range []string{
		"id", "version", "number", "created_at", "updated_by",
		"order_date", "customer_name", "product_id", "unit_price", "status",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "mode")
}

func TestStructToMapCarriesValues(t *testing.T) {
	o := order.NewOrder("Corner Shop", 5)
	o.UnitPrice = decimal.RequireFromString("600")
	o.Version = 3

	m := StructToMap(o)

	assert.Equal(t, o.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "Corner Shop", m["customer_name"])
	assert.Equal(t, int64(5), m["quantity"])
	assert.Equal(t, order.StatusPending, m["status"])
	assert.True(t, o.UnitPrice.Equal(m["unit_price"].(decimal.Decimal)))
}
