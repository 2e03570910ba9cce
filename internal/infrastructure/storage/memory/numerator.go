package memory

import (
	"context"
	"time"

	corenumerator "farmops/internal/core/numerator"
)

// Numerator implements numerator.Generator on the store's sequence map.
// Every strategy behaves as strict here.
type Numerator struct {
	s *Store
}

var _ corenumerator.Generator = (*Numerator)(nil)

func (n *Numerator) GetNextNumber(ctx context.Context, cfg corenumerator.Config, _ *corenumerator.Options, period time.Time) (string, error) {
	key := corenumerator.BuildKey(cfg, period)

	var next int64
	err := n.s.view(ctx, func(st *state) error {
		st.sequences[key]++
		next = st.sequences[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	return corenumerator.Format(cfg, period, next), nil
}
