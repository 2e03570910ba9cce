package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "farmops/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: args are (key, increment).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	key := args[0].(string)
	m.values[key] += args[1].(int64)
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixOrder)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_SeparateSequencesPerPrefix(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	_, err := svc.GetNextNumber(ctx, corenumerator.DefaultConfig(corenumerator.PrefixOrder), nil, period)
	require.NoError(t, err)

	num, err := svc.GetNextNumber(ctx, corenumerator.DefaultConfig(corenumerator.PrefixDelivery), nil, period)
	require.NoError(t, err)
	assert.Equal(t, "DLV-2026-00001", num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixOrder)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)
	assert.Equal(t, int64(10), q.values["ORD_2026"])

	for i := 0; i < 9; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, q.calls, "range of 10 served from memory")

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00011", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_PropagatesQueryError(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("db down")})

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("X"), nil, period)
	assert.ErrorContains(t, err, "db down")
}

func TestFormatWithoutYear(t *testing.T) {
	cfg := corenumerator.Config{Prefix: "DLV", PadWidth: 3, ResetPeriod: "never"}
	assert.Equal(t, "DLV", corenumerator.BuildKey(cfg, period))
	assert.Equal(t, "DLV-042", corenumerator.Format(cfg, period, 42))
}
