package product_type

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "whole chicken", NormalizeName("  Whole Chicken "))
	assert.Equal(t, "", NormalizeName("   "))
}
