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

type stats struct {
	Present int64 `json:"present"`
	Absent  int64 `json:"absent"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "hostel:"), mr
}

func TestSetGetDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stats:2024-05-01", stats{Present: 3, Absent: 1}, time.Minute))
	assert.True(t, mr.Exists("hostel:stats:2024-05-01"))

	var got stats
	require.NoError(t, c.Get(ctx, "stats:2024-05-01", &got))
	assert.Equal(t, stats{Present: 3, Absent: 1}, got)

	require.NoError(t, c.Delete(ctx, "stats:2024-05-01"))
	assert.ErrorIs(t, c.Get(ctx, "stats:2024-05-01", &got), ErrNotFound)
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", stats{Present: 1}, time.Second))
	mr.FastForward(2 * time.Second)

	var got stats
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrNotFound)
}

func TestWithoutClient(t *testing.T) {
	c := New(nil, "x:")
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrNotAvailable)

	var nilCache *Cache
	assert.ErrorIs(t, nilCache.Get(ctx, "k", &v), ErrNotAvailable)
}
