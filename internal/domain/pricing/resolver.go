// Package pricing resolves the unit weight, price per kg and total amount of an
// order line from an ordered cascade of optional sources.
package pricing

import (
	"github.com/shopspring/decimal"

	"farmops/internal/core/types"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/internal/domain/registers/stock"
)

// Source names which input a resolved value came from.
type Source string

const (
	SourceManual      Source = "manual"
	SourceProduct     Source = "product"
	SourceSlaughter   Source = "slaughter"
	SourceProductType Source = "product_type"
	SourceOverride    Source = "override"
	SourceComputed    Source = "computed"
	SourceDefault     Source = "default"
)

// DefaultUnitWeightKg is used when no source provides a positive weight.
var DefaultUnitWeightKg = decimal.NewFromInt(1)

// Input is the order side of a resolution.
type Input struct {
	Quantity int64

	// ManualUnitWeightKg overrides every other weight source when positive.
	ManualUnitWeightKg decimal.NullDecimal

	// UnitPrice is a caller-provided price per kg.
	UnitPrice decimal.NullDecimal

	// TotalAmount, when set, replaces the computed total.
	TotalAmount decimal.NullDecimal
}

// Result is the outcome of Resolve.
type Result struct {
	UnitWeightKg decimal.Decimal
	PricePerKg   decimal.Decimal
	TotalAmount  decimal.Decimal

	WeightSource Source
	PriceSource  Source
	TotalSource  Source
}

// Resolve applies the cascade. All collaborators are optional.
//
//	weight: manual > product.weight > slaughtered.avg_weight > 1
//	price:  input unit price > product.base_unit_price > product_type.price > 0
//	total:  input total amount, else quantity * weight * price
//
// Only values greater than zero count as defined. Unknown pricing yields a zero
// total rather than an error. The caller is responsible for passing the product
// type row matched by normalized name.
func Resolve(in Input, product *stock.Product, slaughtered *slaughter.Slaughtered, productType *product_type.ProductType) Result {
	var res Result

	switch {
	case positive(in.ManualUnitWeightKg):
		res.UnitWeightKg, res.WeightSource = in.ManualUnitWeightKg.Decimal, SourceManual
	case product != nil && positive(product.Weight):
		res.UnitWeightKg, res.WeightSource = product.Weight.Decimal, SourceProduct
	case slaughtered != nil && positive(slaughtered.AvgWeight):
		res.UnitWeightKg, res.WeightSource = slaughtered.AvgWeight.Decimal, SourceSlaughter
	default:
		res.UnitWeightKg, res.WeightSource = DefaultUnitWeightKg, SourceDefault
	}

	switch {
	case positive(in.UnitPrice):
		res.PricePerKg, res.PriceSource = in.UnitPrice.Decimal, SourceManual
	case product != nil && positive(product.BaseUnitPrice):
		res.PricePerKg, res.PriceSource = product.BaseUnitPrice.Decimal, SourceProduct
	case productType != nil && positive(productType.Price):
		res.PricePerKg, res.PriceSource = productType.Price.Decimal, SourceProductType
	default:
		res.PricePerKg, res.PriceSource = decimal.Zero, SourceDefault
	}

	if in.TotalAmount.Valid {
		res.TotalAmount, res.TotalSource = types.RoundMoney(in.TotalAmount.Decimal), SourceOverride
		return res
	}

	res.TotalAmount = types.RoundMoney(
		decimal.NewFromInt(in.Quantity).Mul(res.UnitWeightKg).Mul(res.PricePerKg),
	)
	res.TotalSource = SourceComputed
	return res
}

// TypeName returns the label used to look up the product type row: the
// order's own label when present, otherwise the product's type.
func TypeName(orderProductType string, product *stock.Product) string {
	if name := product_type.NormalizeName(orderProductType); name != "" {
		return name
	}
	if product != nil {
		return product.Type
	}
	return ""
}

func positive(d decimal.NullDecimal) bool {
	_, ok := types.Positive(d)
	return ok
}
