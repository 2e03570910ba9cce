// Package types provides common numeric helpers for money and weights.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Weight is a mass in kilograms.
type Weight = decimal.Decimal

// MoneyPlaces is the number of fractional digits stored for amounts.
const MoneyPlaces = 2

// MustDecimal creates a decimal from a string, panics on error.
// Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RoundMoney rounds an amount to MoneyPlaces.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// Positive returns the value of d when it is set and strictly greater than zero.
func Positive(d decimal.NullDecimal) (decimal.Decimal, bool) {
	if d.Valid && d.Decimal.IsPositive() {
		return d.Decimal, true
	}
	return decimal.Zero, false
}

// Null wraps d as a set NullDecimal.
func Null(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// NullFromPtr converts an optional decimal into a NullDecimal.
func NullFromPtr(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return Null(*d)
}
