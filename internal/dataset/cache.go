package dataset

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "tablero:snapshot:version"
	bumpChannel     = "snapshot.bump"
)

// CachedProvider keeps raw snapshot documents in Redis under versioned keys.
// Only snapshots are cached; derived KPI views are always recomputed.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
}

// NewCachedProvider wraps next. A nil client disables caching.
func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *CachedProvider) Version(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

func (c *CachedProvider) key(ctx context.Context, source Source) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("tablero:snapshot:%s:%d", source, ver), nil
}

// Fetch serves the cached document or loads and stores it. Redis failures fall through
// to the upstream provider.
func (c *CachedProvider) Fetch(ctx context.Context, source Source) ([]byte, error) {
	if c.client == nil {
		return c.next.Fetch(ctx, source)
	}
	key, err := c.key(ctx, source)
	if err != nil {
		return c.next.Fetch(ctx, source)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return payload, nil
	}
	raw, err := c.next.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	return raw, nil
}

// Bump invalidates every cached snapshot by incrementing the version and publishing it.
func (c *CachedProvider) Bump(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}
