package user

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLookup records how often the backing lookup is consulted.
type countingLookup struct {
	Lookup
	calls atomic.Int32
}

func (c *countingLookup) ResolveDisplay(ctx context.Context, userID string) (Display, error) {
	c.calls.Add(1)
	return c.Lookup.ResolveDisplay(ctx, userID)
}

// setupTestRedis connects to TEST_REDIS_ADDR (default localhost:6379) and skips when unavailable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

func TestCachedLookup(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	prefix := "test:display:" + time.Now().Format("150405.000000") + ":"

	backing := &countingLookup{Lookup: NewMemoryLookup(Display{ID: "u1", Name: "Ada"})}
	cached := NewCachedLookup(backing, client, prefix, time.Minute)
	t.Cleanup(func() { _ = cached.Invalidate(ctx, "u1") })

	for range 3 {
		d, err := cached.ResolveDisplay(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", d.Name)
	}

	assert.Equal(t, int32(1), backing.calls.Load())
	stats := cached.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	_, err := cached.ResolveDisplay(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cached.ResolveDisplay(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(3), backing.calls.Load())
}

func TestCachedLookupFallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	cached := NewCachedLookup(NewMemoryLookup(Display{ID: "u1", Name: "Ada"}), client, "x:", time.Minute)

	d, err := cached.ResolveDisplay(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", d.Name)
	assert.GreaterOrEqual(t, cached.Stats().Errors, uint64(1))
}
