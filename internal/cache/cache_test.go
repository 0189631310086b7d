package cache

import (
	"context"
	"testing"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/humanorai/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tally struct {
	ContentID string `json:"contentId"`
	AIVotes   int    `json:"aiVotes"`
}

func TestPrefixedCache_Memory(t *testing.T) {
	ctx := context.Background()
	c, err := New(&config.CacheConfig{Type: config.CacheTypeMemory})
	require.NoError(t, err)

	tallies := NewPrefixedCache[tally](c, config.CacheTypeMemory, "tally-")
	assert.Equal(t, config.CacheTypeMemory, tallies.GetType())

	_, err = tallies.Get(ctx, "c1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	require.NoError(t, tallies.Set(ctx, "c1", tally{ContentID: "c1", AIVotes: 3}))
	got, err := tallies.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, tally{ContentID: "c1", AIVotes: 3}, got)

	require.NoError(t, tallies.Delete(ctx, "c1"))
	_, err = tallies.Get(ctx, "c1")
	assert.True(t, IsNotFound(err))

	// deleting a missing key is not an error
	assert.NoError(t, tallies.Delete(ctx, "missing"))
}

func TestPrefixedCache_PrefixesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	c, err := New(nil)
	require.NoError(t, err)

	a := NewPrefixedCache[int](c, config.CacheTypeMemory, "a-")
	b := NewPrefixedCache[int](c, config.CacheTypeMemory, "b-")

	require.NoError(t, a.Set(ctx, 1, 10))
	require.NoError(t, b.Set(ctx, 1, 20))

	va, err := a.Get(ctx, 1)
	require.NoError(t, err)
	vb, err := b.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, va)
	assert.Equal(t, 20, vb)
}

func TestPrefixedCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, err := New(&config.CacheConfig{Type: config.CacheTypeMemory})
	require.NoError(t, err)

	tallies := NewPrefixedCache[tally](c, config.CacheTypeMemory, "tally-")
	require.NoError(t, tallies.Set(ctx, "c1", tally{ContentID: "c1"}, store.WithExpiration(10*time.Millisecond)))

	assert.Eventually(t, func() bool {
		_, err := tallies.Get(ctx, "c1")
		return IsNotFound(err)
	}, time.Second, 5*time.Millisecond)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(&config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)
}

func TestNew_InvalidRedisURL(t *testing.T) {
	_, err := New(&config.CacheConfig{Type: config.CacheTypeRedis, RedisURL: "redis://:bad@host:notaport"})
	assert.Error(t, err)
}

func TestPrefixedCache_ClearKeepsOtherPrefixes(t *testing.T) {
	ctx := context.Background()
	c, err := New(nil)
	require.NoError(t, err)

	tallies := NewPrefixedCache[int](c, config.CacheTypeMemory, "tally-")
	sessions := NewPrefixedCache[int](c, config.CacheTypeMemory, "session-")

	require.NoError(t, tallies.Set(ctx, "c1", 1))
	require.NoError(t, tallies.Set(ctx, "c2", 2, store.WithExpiration(time.Minute)))
	require.NoError(t, sessions.Set(ctx, "s1", 3))

	require.NoError(t, tallies.Clear(ctx))

	_, err = tallies.Get(ctx, "c1")
	assert.True(t, IsNotFound(err))
	_, err = tallies.Get(ctx, "c2")
	assert.True(t, IsNotFound(err))

	v, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
