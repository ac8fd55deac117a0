package advice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/llm"
)

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	n := &Narration{Summary: "s", Tips: []string{"a"}, Source: SourceLLM}
	c.Set(ctx, "k", n)
	n.Tips[0] = "mutated"

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Tips)
	got.Source = SourceCache

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, SourceLLM, again.Source)

	require.NoError(t, c.Flush(ctx))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func newRedisCache(t *testing.T, ttl time.Duration) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, ttl), mr
}

func TestRedisCacheRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", &Narration{Summary: "shared", Tips: []string{"x", "y"}, Source: SourceLLM})
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "shared", got.Summary)
	assert.Equal(t, []string{"x", "y"}, got.Tips)
	assert.True(t, mr.Exists(redisKeyPrefix+"k"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCacheFlushKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)
	require.NoError(t, mr.Set("other:key", "keep"))

	c.Set(ctx, "a", &Narration{Summary: "a"})
	c.Set(ctx, "b", &Narration{Summary: "b"})
	require.NoError(t, c.Flush(ctx))

	assert.False(t, mr.Exists(redisKeyPrefix+"a"))
	assert.False(t, mr.Exists(redisKeyPrefix+"b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCacheTreatsGarbageAsMiss(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	require.NoError(t, mr.Set(redisKeyPrefix+"k", "{not json"))

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestServiceSharesRedisCache(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	cfg := DefaultConfig()
	cfg.Cache = c

	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"summary":"From the model.","tips":["Rest"]}`),
	})
	first := NewService(catalog.Default(), mock, cfg)
	in := first.Input(testResult("blood-deficiency"), "", "", "dizzy")
	assert.Equal(t, SourceLLM, first.Narrate(context.Background(), in).Source)

	// A second service, as in another process, hits the shared entry.
	second := NewService(catalog.Default(), llm.NewMockProvider(), cfg)
	n := second.Narrate(context.Background(), in)
	assert.Equal(t, SourceCache, n.Source)
	assert.Equal(t, "From the model.", n.Summary)

	require.NoError(t, second.Reset(context.Background()))
	assert.Equal(t, SourceStatic, second.Narrate(context.Background(), in).Source)
}
