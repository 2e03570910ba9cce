// Package slaughter exposes slaughter events as a read-only weight source.
package slaughter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"farmops/internal/core/id"
)

// Slaughtered is a recorded slaughter event for a chick batch.
type Slaughtered struct {
	ID            id.ID               `db:"id" json:"id"`
	BatchID       *id.ID              `db:"batch_id" json:"batchId,omitempty"`
	SlaughterDate time.Time           `db:"slaughter_date" json:"slaughterDate"`
	Quantity      int64               `db:"quantity" json:"quantity"`
	AvgWeight     decimal.NullDecimal `db:"avg_weight" json:"avgWeight"`
}

// Repository looks up slaughter events.
type Repository interface {
	// GetByID returns the event or nil when it does not exist.
	// Products reference slaughter events weakly, so absence is not an error.
	GetByID(ctx context.Context, slaughterID id.ID) (*Slaughtered, error)
}
