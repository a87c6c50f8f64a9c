package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/orbstation/portal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err)
	return c
}

func TestJSONRoundTrip(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	in := payload{Name: "steve", Count: 3}
	require.NoError(t, cache.SetJSON(ctx, c, "k", in, time.Minute))

	var out payload
	hit, err := cache.GetJSON(ctx, c, "k", &out)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in, out)
}

func TestGetJSON_MissIsNotAnError(t *testing.T) {
	c := newCache(t)

	var out payload
	hit, err := cache.GetJSON(context.Background(), c, "missing", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetJSON_CorruptEntryIsDropped(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "{not json", time.Minute))

	var out payload
	hit, err := cache.GetJSON(ctx, c, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists, "corrupt entry should be evicted")
}
