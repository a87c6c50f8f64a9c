package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewCache(Config{GCInterval: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestSetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestGet_Missing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	require.NoError(t, c.Del(ctx, "a", "b"))

	exists, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _ := c.Get(ctx, "lock")
	assert.Equal(t, "1", v)
}

func TestExpire(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Expire(ctx, "k", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, c.Expire(ctx, "missing", time.Minute), ErrNotFound)
}

func TestKeys_PrefixFilter(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "resp:player:a", "1", 0))
	require.NoError(t, c.Set(ctx, "resp:rounds:80:1:", "2", 0))
	require.NoError(t, c.Set(ctx, "session:tok", "3", 0))

	keys, err := c.Keys(ctx, "resp:")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.NotContains(t, keys, "session:tok")
}

func TestGC_RemovesExpired(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(120 * time.Millisecond)

	keys, err := c.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
