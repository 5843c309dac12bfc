package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter TTLs. The unread counters are an optimization over the message
// store; expiry bounds how long a drifted value can survive before the
// next read recomputes it.
const (
	TTLUnread  = 10 * time.Minute
	TTLSummary = 30 * time.Second
	TTLDefault = 5 * time.Minute
)

// Cache key prefixes
const (
	PrefixUnreadTotal = "unread:total:"
	PrefixUnreadConv  = "unread:conv:"
	PrefixInbox       = "inbox:"
)

// UnreadTotalKey builds the global unread badge key for a user
func UnreadTotalKey(userID uint64) string {
	return fmt.Sprintf("%s%d", PrefixUnreadTotal, userID)
}

// UnreadConvKey builds the per-conversation unread key for a user
func UnreadConvKey(userID, conversationID uint64) string {
	return fmt.Sprintf("%s%d:%d", PrefixUnreadConv, userID, conversationID)
}

// incrExisting increments a counter only if the key is already populated.
// Incrementing a missing key would start counting from zero and lose the
// unread messages that predate the cache entry.
var incrExisting = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('INCRBY', KEYS[1], ARGV[1])
end
return -1
`)

// Service Redis cache service interface
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Counter operations for the unread tracker
	GetCount(ctx context.Context, key string) (value int64, hit bool, err error)
	SetCount(ctx context.Context, key string, value int64, ttl time.Duration) error
	IncrExisting(ctx context.Context, key string, delta int64) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable reports whether Redis is configured
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping tests the Redis connection
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get reads a JSON value from the cache
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set writes a JSON value to the cache
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // no Redis, silently skip
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes cache keys
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetCount reads a counter. hit=false means the caller must recompute.
func (c *redisCache) GetCount(ctx context.Context, key string) (int64, bool, error) {
	if c.client == nil {
		return 0, false, nil
	}
	value, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// SetCount writes a recomputed counter value
func (c *redisCache) SetCount(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// IncrExisting bumps a counter if (and only if) it is populated
func (c *redisCache) IncrExisting(ctx context.Context, key string, delta int64) error {
	if c.client == nil {
		return nil
	}
	return incrExisting.Run(ctx, c.client, []string{key}, delta).Err()
}
