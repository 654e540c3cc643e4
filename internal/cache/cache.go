package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Cache is a nil-safe wrapper over Redis. A Cache without a client turns
// every read into a miss and every write into a no-op.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, and stores the result with ttl. Cache failures never fail the call.
// When group is not empty the key is recorded in it so InvalidateGroup can
// drop every variant at once.
func (c *Cache) Aside(ctx context.Context, key, group string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	c.Store(ctx, key, dest, ttl, group)
	return nil
}

// Store writes v under key and records key in every non-empty group.
// Failures are logged and otherwise ignored.
func (c *Cache) Store(ctx context.Context, key string, v any, ttl time.Duration, groups ...string) {
	if err := c.SetJSON(ctx, key, v, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if !c.Enabled() {
		return
	}
	pipe := c.rdb.TxPipeline()
	queued := false
	for _, group := range groups {
		if group == "" {
			continue
		}
		pipe.SAdd(ctx, group, key)
		pipe.Expire(ctx, group, ttl)
		queued = true
	}
	if !queued {
		return
	}
	if _, err := pipe.Exec(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "cache group write failed", slog.Any("groups", groups), slog.String("error", err.Error()))
	}
}

// Invalidate deletes the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidateGroup deletes every key recorded in group along with the group.
func (c *Cache) InvalidateGroup(ctx context.Context, group string) {
	if !c.Enabled() {
		return
	}
	members, err := c.rdb.SMembers(ctx, group).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache group read failed", slog.String("group", group), slog.String("error", err.Error()))
		return
	}
	c.Invalidate(ctx, append(members, group)...)
}

// SetString stores a plain value with TTL.
func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// GetString returns a plain value and whether it was present.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, nil
	}
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
