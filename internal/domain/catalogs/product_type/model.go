// Package product_type provides the reference price list keyed by product type name.
// It is read-only for the fulfillment core.
package product_type

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"farmops/internal/core/id"
)

// ProductType is a price-list row: price per kg for a product type.
type ProductType struct {
	ID    id.ID               `db:"id" json:"id"`
	Name  string              `db:"name" json:"name"`
	Price decimal.NullDecimal `db:"price" json:"price"`
}

// NormalizeName returns the lookup form of a type label: trimmed, lowercase.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Repository looks up product types.
type Repository interface {
	// GetByName returns the type whose normalized name equals NormalizeName(name),
	// or nil when there is none.
	GetByName(ctx context.Context, name string) (*ProductType, error)
}
