package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingTables(t *testing.T) {
	require.NoError(t, missingTables(RequiredTables))

	err := missingTables([]string{"products", "orders"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliveries")
	assert.NotContains(t, err.Error(), "products,")
}
