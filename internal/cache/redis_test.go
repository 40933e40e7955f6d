package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "company:1", entry{Name: "Eesti Puit OÜ", Value: 42}, time.Minute))
	assert.True(t, mr.Exists("registry:company:1"))

	var got entry
	require.NoError(t, c.Get(ctx, "company:1", &got))
	assert.Equal(t, entry{Name: "Eesti Puit OÜ", Value: 42}, got)

	ok, err := c.Exists(ctx, "company:1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "company:1"))
	assert.ErrorIs(t, c.Get(ctx, "company:1", &got), ErrMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "x"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got entry
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}

func TestGetOrSet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (entry, error) {
		calls++
		return entry{Name: "fetched", Value: calls}, nil
	}

	first, err := GetOrSet(ctx, c, "k", time.Minute, fetch)
	require.NoError(t, err)
	second, err := GetOrSet(ctx, c, "k", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrSet_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := GetOrSet(ctx, c, "k", time.Minute, func() (entry, error) { return entry{}, boom })
	assert.ErrorIs(t, err, boom)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *RedisCache
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())

	calls := 0
	got, err := GetOrSet(ctx, c, "k", time.Minute, func() (int, error) { calls++; return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, calls)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url://")
	assert.Error(t, err)
}
