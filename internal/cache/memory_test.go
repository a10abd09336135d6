package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.SetClock(func() time.Time { return now })

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound, "expiry is inclusive")

	exists, err := c.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Expire(ctx, "forever", time.Second))
	now = now.Add(2 * time.Second)
	exists, err = c.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	ok, err := c.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	value, err := c.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, "a", value)

	require.NoError(t, c.Delete(ctx, "lock"))
	ok, err = c.SetNX(ctx, "lock", "c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_Sets(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	members, err := c.SMembers(ctx, "user:1")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, c.SAdd(ctx, "user:1", "a", "b", "a"))
	require.NoError(t, c.SAdd(ctx, "user:1", "c"))

	members, err = c.SMembers(ctx, "user:1")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"a", "b", "c"}, members)

	// a set is not a string value
	_, err = c.Get(ctx, "user:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.SRem(ctx, "user:1", "a", "b", "c"))
	exists, err := c.Exists(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, exists, "empty sets are removed")

	assert.NoError(t, c.Ping(ctx))
}
