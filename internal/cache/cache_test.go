package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/foc-extractor/internal/cache"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

func TestNewRedis_EmptyAddress(t *testing.T) {
	c, err := cache.NewRedis(common.CacheConfig{})

	assert.ErrorIs(t, err, cache.ErrEmptyAddress)
	assert.Nil(t, c)
}

func TestRedis_RoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedis(common.CacheConfig{RedisAddr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "abc", []byte("수출신고필증")))
	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "수출신고필증", string(got))
	assert.True(t, mr.Exists("focx:text:abc"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Health(ctx))
}

func TestNewRedis_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := cache.NewRedis(common.CacheConfig{RedisAddr: addr})

	assert.Error(t, err)
}

func TestMemory_RoundTrip(t *testing.T) {
	m := cache.NewMemory(0, 0)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	got, ok, err := m.Get(ctx, "k")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_BoundedEntries(t *testing.T) {
	m := cache.NewMemory(time.Hour, 2)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, m.Set(ctx, k, []byte(k)))
	}
	assert.Equal(t, 2, m.Len())

	_, ok, err := m.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Set(ctx, "c", []byte("c2")))
	assert.Equal(t, 2, m.Len())
}
