package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (*RedisTravelTimeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTravelTimeCache(client, ttl, nil), mr
}

func TestRedisTravelTimeCacheRoundTrip(t *testing.T) {
	c, _ := newMiniredisCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := c.GetMatrix(ctx, "traveltime:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	m := [][]int64{{0, 120, 999999}, {130, 0, 90}, {310, 95, 0}}
	require.NoError(t, c.PutMatrix(ctx, "traveltime:abc", m))

	got, ok, err := c.GetMatrix(ctx, "traveltime:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestRedisTravelTimeCacheExpires(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.PutMatrix(ctx, "traveltime:k", [][]int64{{0}}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetMatrix(ctx, "traveltime:k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTravelTimeCacheCorruptValue(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	require.NoError(t, mr.Set("traveltime:bad", "not json"))

	_, _, err := c.GetMatrix(context.Background(), "traveltime:bad")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "://bad")
	assert.Error(t, err)
}
