package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"farmops/internal/core/types"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/domain/registers/stock"
)

func dec(s string) decimal.NullDecimal {
	return types.Null(types.MustDecimal(s))
}

func TestResolve_ManualWeightWinsOverProductWeight(t *testing.T) {
	product := &stock.Product{Weight: dec("1.5"), BaseUnitPrice: dec("300")}

	res := Resolve(Input{Quantity: 5, ManualUnitWeightKg: dec("2")}, product, nil, nil)

	assert.True(t, res.UnitWeightKg.Equal(types.MustDecimal("2")))
	assert.True(t, res.PricePerKg.Equal(types.MustDecimal("300")))
	assert.True(t, res.TotalAmount.Equal(types.MustDecimal("3000")), res.TotalAmount.String())
	assert.Equal(t, SourceManual, res.WeightSource)
	assert.Equal(t, SourceProduct, res.PriceSource)
}

func TestResolve_WeightCascade(t *testing.T) {
	sl := &slaughter.Slaughtered{AvgWeight: dec("2.4")}

	tests := []struct {
		name    string
		in      Input
		product *stock.Product
		sl      *slaughter.Slaughtered
		want    string
		source  Source
	}{
		{"product weight", Input{}, &stock.Product{Weight: dec("1.8")}, sl, "1.8", SourceProduct},
		{"zero manual falls through", Input{ManualUnitWeightKg: dec("0")}, &stock.Product{Weight: dec("1.8")}, nil, "1.8", SourceProduct},
		{"slaughter average", Input{}, &stock.Product{Weight: dec("0")}, sl, "2.4", SourceSlaughter},
		{"default", Input{}, nil, nil, "1", SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.in, tt.product, tt.sl, nil)
			assert.True(t, res.UnitWeightKg.Equal(types.MustDecimal(tt.want)), res.UnitWeightKg.String())
			assert.Equal(t, tt.source, res.WeightSource)
		})
	}
}

func TestResolve_PriceCascade(t *testing.T) {
	pt := &product_type.ProductType{Name: "broiler", Price: dec("250")}

	res := Resolve(Input{Quantity: 2, UnitPrice: dec("310")}, &stock.Product{BaseUnitPrice: dec("300")}, nil, pt)
	assert.Equal(t, SourceManual, res.PriceSource)

	res = Resolve(Input{Quantity: 2}, &stock.Product{}, nil, pt)
	assert.Equal(t, SourceProductType, res.PriceSource)
	assert.True(t, res.TotalAmount.Equal(types.MustDecimal("500")))
}

func TestResolve_UnknownPricingIsZero(t *testing.T) {
	res := Resolve(Input{Quantity: 7}, nil, nil, nil)

	assert.True(t, res.UnitWeightKg.Equal(decimal.NewFromInt(1)))
	assert.True(t, res.PricePerKg.IsZero())
	assert.True(t, res.TotalAmount.IsZero())
}

func TestResolve_TotalOverrideWins(t *testing.T) {
	product := &stock.Product{Weight: dec("1.5"), BaseUnitPrice: dec("300")}

	res := Resolve(Input{Quantity: 5, TotalAmount: dec("1999.999")}, product, nil, nil)

	assert.True(t, res.TotalAmount.Equal(types.MustDecimal("2000")))
	assert.Equal(t, SourceOverride, res.TotalSource)
}

func TestResolve_Deterministic(t *testing.T) {
	product := &stock.Product{Weight: dec("1.25"), BaseUnitPrice: dec("199.90")}
	in := Input{Quantity: 3}

	first := Resolve(in, product, nil, nil)
	second := Resolve(in, product, nil, nil)

	assert.Equal(t, first, second)
	assert.True(t, first.TotalAmount.Equal(types.MustDecimal("749.63")), first.TotalAmount.String())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "broiler", TypeName("  Broiler ", &stock.Product{Type: "layer"}))
	assert.Equal(t, "layer", TypeName("", &stock.Product{Type: "layer"}))
	assert.Equal(t, "", TypeName("", nil))
}
