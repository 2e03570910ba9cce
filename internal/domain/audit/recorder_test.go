package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Quantity int64  `json:"quantity"`
	Status   string `json:"status"`
	Notes    string `json:"notes,omitempty"`
}

func TestChangeDiff(t *testing.T) {
	diff, err := Change{
		Before: sample{Quantity: 10, Status: "pending", Notes: "x"},
		After:  sample{Quantity: 12, Status: "pending"},
	}.Diff()
	require.NoError(t, err)

	assert.Len(t, diff, 2)
	assert.Equal(t, map[string]any{"old": float64(10), "new": float64(12)}, diff["quantity"])
	assert.Equal(t, map[string]any{"old": "x", "new": nil}, diff["notes"])
}

func TestChangeDiffFromNothing(t *testing.T) {
	diff, err := Change{After: sample{Quantity: 1}}.Diff()
	require.NoError(t, err)
	assert.Contains(t, diff, "quantity")
}
