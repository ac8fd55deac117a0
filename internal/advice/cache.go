package advice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores generated narrations by prompt key.
type Cache interface {
	Get(ctx context.Context, key string) (*Narration, bool)
	Set(ctx context.Context, key string, n *Narration)
	Flush(ctx context.Context) error
}

type memoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache returns a process-local cache. A ttl of zero or less keeps
// entries until Flush.
func NewMemoryCache(ttl time.Duration) Cache {
	if ttl <= 0 {
		return &memoryCache{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &memoryCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *memoryCache) Get(_ context.Context, key string) (*Narration, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	n := *v.(*Narration)
	n.Tips = append([]string(nil), n.Tips...)
	return &n, true
}

func (m *memoryCache) Set(_ context.Context, key string, n *Narration) {
	cp := *n
	cp.Tips = append([]string(nil), n.Tips...)
	m.c.Set(key, &cp, gocache.DefaultExpiration)
}

func (m *memoryCache) Flush(context.Context) error {
	m.c.Flush()
	return nil
}

// redisKeyPrefix namespaces narration keys in a shared Redis.
const redisKeyPrefix = "taishitsu:advice:"

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a cache shared by every process using client, so
// several serve instances reuse each other's narrations. Redis errors are
// logged and treated as misses.
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &redisCache{client: client, ttl: ttl}
}

func (r *redisCache) Get(ctx context.Context, key string) (*Narration, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "advice cache read failed", "error", err)
		return nil, false
	}
	var n Narration
	if err := json.Unmarshal(data, &n); err != nil {
		slog.WarnContext(ctx, "advice cache entry unreadable", "error", err)
		return nil, false
	}
	return &n, true
}

func (r *redisCache) Set(ctx context.Context, key string, n *Narration) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "advice cache write failed", "error", err)
	}
}

func (r *redisCache) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
