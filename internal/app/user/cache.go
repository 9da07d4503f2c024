package user

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chatcore/internal/pkg/logx"
)

// CacheStats counts cache outcomes of a CachedLookup.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Errors uint64 `json:"errors"`
}

// CachedLookup decorates a Lookup with a Redis cache-aside layer.
// Redis failures degrade to the underlying Lookup; unknown users are not cached.
type CachedLookup struct {
	next   Lookup
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64

	logger zerolog.Logger
}

// NewCachedLookup wraps next with a cache stored under prefix for ttl.
func NewCachedLookup(next Lookup, client *redis.Client, prefix string, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logx.Component("DisplayCache"),
	}
}

func (c *CachedLookup) key(userID string) string {
	return c.prefix + userID
}

// ResolveDisplay implements Lookup.
func (c *CachedLookup) ResolveDisplay(ctx context.Context, userID string) (Display, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	switch {
	case err == nil:
		var d Display
		if jsonErr := json.Unmarshal(data, &d); jsonErr == nil {
			c.hits.Add(1)
			return d, nil
		}
		c.failures.Add(1)
		c.logger.Warn().Str("user_id", userID).Msg("Dropping undecodable cache entry.")
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
	default:
		c.failures.Add(1)
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Display cache read failed, falling back to lookup.")
	}

	d, err := c.next.ResolveDisplay(ctx, userID)
	if err != nil {
		return Display{}, err
	}

	if data, err := json.Marshal(d); err == nil {
		if err := c.client.Set(ctx, c.key(userID), data, c.ttl).Err(); err != nil {
			c.failures.Add(1)
			c.logger.Warn().Err(err).Str("user_id", userID).Msg("Display cache write failed.")
		}
	}

	return d, nil
}

// Invalidate removes the cached entry for userID.
func (c *CachedLookup) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

// Stats returns a snapshot of the cache counters.
func (c *CachedLookup) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.failures.Load(),
	}
}
