package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/domain/reconciliation"
	"farmops/internal/infrastructure/storage/memory"
	"farmops/pkg/logger"
)

type stubReconciler struct {
	runs   int
	report *reconciliation.Report
	err    error
}

func (s *stubReconciler) Run(context.Context) (*reconciliation.Report, error) {
	s.runs++
	return s.report, s.err
}

func TestRegister_ValidSpecs(t *testing.T) {
	s := New(Config{ReconcileSpec: "*/15 * * * *", CleanupSpec: "@hourly"},
		&stubReconciler{}, memory.NewIdempotencyStore(0), logger.Nop())

	require.NoError(t, s.Register())
	assert.Equal(t, 2, s.Entries())
}

func TestRegister_SkipsCleanupWithoutStore(t *testing.T) {
	s := New(Config{ReconcileSpec: "@every 1m", CleanupSpec: "@hourly"}, &stubReconciler{}, nil, nil)

	require.NoError(t, s.Register())
	assert.Equal(t, 1, s.Entries())
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	s := New(Config{ReconcileSpec: "every quarter hour", CleanupSpec: "@hourly"}, &stubReconciler{}, nil, nil)

	err := s.Register()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every quarter hour")
}

func TestReconcile_PropagatesErrors(t *testing.T) {
	rec := &stubReconciler{err: errors.New("db down")}
	s := New(Config{}, rec, nil, nil)

	assert.EqualError(t, s.Reconcile(context.Background()), "db down")

	rec.err = nil
	rec.report = &reconciliation.Report{Violations: []reconciliation.Violation{{Packaged: 1, Reserved: 2}}}
	assert.NoError(t, s.Reconcile(context.Background()))
	assert.Equal(t, 2, rec.runs)
}

func TestCleanupKeys(t *testing.T) {
	ctx := context.Background()
	keys := memory.NewIdempotencyStore(time.Millisecond)
	_, err := keys.AcquireKey(ctx, "k", "u", "POST /api/v1/orders", "h")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	s := New(Config{}, &stubReconciler{}, keys, nil)
	require.NoError(t, s.CleanupKeys(ctx))

	removed, err := keys.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDefaults(t *testing.T) {
	s := New(Config{}, &stubReconciler{}, nil, nil)
	assert.Equal(t, time.UTC, s.cfg.Location)
	assert.Equal(t, 10*time.Minute, s.cfg.JobTimeout)
}
