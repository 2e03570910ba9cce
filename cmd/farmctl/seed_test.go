package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSeedDataIsWellFormed(t *testing.T) {
	for _, row := range seedPriceList {
		_, err := decimal.NewFromString(row.Price)
		assert.NoError(t, err, row.Name)
	}
	for _, row := range seedSlaughters {
		_, err := decimal.NewFromString(row.AvgWeight)
		assert.NoError(t, err)
	}
	for _, row := range seedProducts {
		assert.Less(t, row.Slaughter, len(seedSlaughters), row.Type)
		assert.Positive(t, row.Packaged, row.Type)
	}
}
