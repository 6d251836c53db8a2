package cache

import (
	"context"
	"cvrp-route-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisResultCache(client), mr
}

func TestRedisResultCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	run, ok, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, run)
}

func TestRedisResultCachePutGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	in := &ports.SolveRun{
		ID:           "run-1",
		InstanceName: "line",
		Algorithm:    "both",
		TotalCost:    8,
		Vehicles:     2,
		Routes: []ports.RunRoute{
			{Customers: []int{2, 3}, Cost: 4, Load: 10},
			{Customers: []int{4, 5}, Cost: 4, Load: 10},
		},
		Duration: 250 * time.Millisecond,
	}
	require.NoError(t, c.Put(ctx, "abc", in, time.Minute))
	assert.True(t, mr.Exists("cvrp:run:abc"))

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Routes, got.Routes)
	assert.Equal(t, in.TotalCost, got.TotalCost)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisResultCacheCorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("cvrp:run:bad", "not json"))

	_, ok, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}
