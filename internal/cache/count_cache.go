package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	countKeyPrefix = "activity_log:count:"
	generationKey  = "activity_log:count:gen"
)

// RedisCountCache stores query totals under a generation number. Appends bump
// the generation, which orphans every cached total at once; orphans expire
// through the TTL.
type RedisCountCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCountCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCountCache {
	return &RedisCountCache{client: client, ttl: ttl, log: log}
}

// Get looks key up under the current generation. The returned entry names
// that generation's slot and is what Set must be given, so a total counted
// before an append is never stored as fresh after it. An empty entry means
// the cache cannot be used.
func (c *RedisCountCache) Get(ctx context.Context, key string) (int64, string, bool) {
	entry, err := c.entry(ctx, key)
	if err != nil {
		c.log.Debug("count cache generation lookup failed", zap.Error(err))
		return 0, "", false
	}
	n, err := c.client.Get(ctx, entry).Int64()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("count cache get failed", zap.Error(err))
		}
		return 0, entry, false
	}
	return n, entry, true
}

func (c *RedisCountCache) Set(ctx context.Context, entry string, n int64) {
	if entry == "" {
		return
	}
	if err := c.client.Set(ctx, entry, n, c.ttl).Err(); err != nil {
		c.log.Debug("count cache set failed", zap.Error(err))
	}
}

func (c *RedisCountCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.log.Warn("count cache invalidate failed", zap.Error(err))
	}
}

func (c *RedisCountCache) entry(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Result()
	if err == redis.Nil {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	if _, err := strconv.ParseInt(gen, 10, 64); err != nil {
		return "", fmt.Errorf("bad count cache generation %q", gen)
	}
	sum := sha256.Sum256([]byte(key))
	return countKeyPrefix + gen + ":" + hex.EncodeToString(sum[:8]), nil
}
