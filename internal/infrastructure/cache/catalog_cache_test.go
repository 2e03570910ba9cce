package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/core/id"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
)

type countingTypes struct {
	calls int
	items map[string]*product_type.ProductType
}

func (c *countingTypes) GetByName(_ context.Context, name string) (*product_type.ProductType, error) {
	c.calls++
	return c.items[product_type.NormalizeName(name)], nil
}

type countingSlaughters struct {
	calls int
	items map[id.ID]*slaughter.Slaughtered
}

func (c *countingSlaughters) GetByID(_ context.Context, slaughterID id.ID) (*slaughter.Slaughtered, error) {
	c.calls++
	return c.items[slaughterID], nil
}

func TestKeysAreNormalized(t *testing.T) {
	assert.Equal(t, productTypeKey("whole chicken"), productTypeKey("  Whole Chicken "))

	sid := id.New()
	assert.Equal(t, "farmops:catalog:slaughter:"+sid.String(), slaughterKey(sid))
}

func TestUnreachableRedisFallsBackToRepository(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingTypes{items: map[string]*product_type.ProductType{
		"fillet": {ID: id.New(), Name: "fillet", Price: decimal.NewNullDecimal(decimal.NewFromInt(12))},
	}}
	repo := NewCatalogCache(rdb, time.Minute).ProductTypes(inner)

	pt, err := repo.GetByName(context.Background(), "Fillet")
	require.NoError(t, err)
	require.NotNil(t, pt)
	assert.Equal(t, "fillet", pt.Name)

	missing, err := repo.GetByName(context.Background(), "wings")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, 2, inner.calls)
}

// Runs against a real Redis when FARMOPS_TEST_REDIS_ADDR is set.
func TestReadThroughWithRedis(t *testing.T) {
	addr := os.Getenv("FARMOPS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FARMOPS_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	cache := NewCatalogCache(rdb, time.Minute)
	_, err := cache.Flush(ctx)
	require.NoError(t, err)

	sid := id.New()
	inner := &countingSlaughters{items: map[id.ID]*slaughter.Slaughtered{
		sid: {ID: sid, Quantity: 100, AvgWeight: decimal.NewNullDecimal(decimal.RequireFromString("2.4"))},
	}}
	repo := cache.Slaughters(inner)

	for range 3 {
		s, err := repo.GetByID(ctx, sid)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.True(t, s.AvgWeight.Decimal.Equal(decimal.RequireFromString("2.4")))
	}
	assert.Equal(t, 1, inner.calls)

	absent := id.New()
	for range 2 {
		s, err := repo.GetByID(ctx, absent)
		require.NoError(t, err)
		assert.Nil(t, s)
	}
	assert.Equal(t, 2, inner.calls)

	require.NoError(t, Invalidate(ctx, cache, "slaughter:"+sid.String()))
	_, err = repo.GetByID(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}
