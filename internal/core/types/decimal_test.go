package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPositive(t *testing.T) {
	v, ok := Positive(Null(MustDecimal("1.5")))
	assert.True(t, ok)
	assert.True(t, v.Equal(MustDecimal("1.5")))

	_, ok = Positive(Null(decimal.Zero))
	assert.False(t, ok)

	_, ok = Positive(Null(MustDecimal("-2")))
	assert.False(t, ok)

	_, ok = Positive(decimal.NullDecimal{})
	assert.False(t, ok)
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "10.13", RoundMoney(MustDecimal("10.125")).String())
	assert.Equal(t, "3000", RoundMoney(MustDecimal("3000.000")).String())
}

func TestNullFromPtr(t *testing.T) {
	assert.False(t, NullFromPtr(nil).Valid)
	d := MustDecimal("2")
	assert.True(t, NullFromPtr(&d).Decimal.Equal(d))
}
