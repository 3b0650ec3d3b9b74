package folio

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, "", time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := GenerationResponse{
		Content:  `{"rewritten":"x"}`,
		Usage:    &Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
		Model:    DefaultModelAnthropic,
		Provider: ProviderAnthropic,
	}
	require.NoError(t, c.Set(ctx, "abc", want))
	assert.True(t, mr.Exists(DefaultRedisKeyPrefix+"abc"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisKeyPrefix+"abc"))

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisCacheExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, "test:", time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", GenerationResponse{Content: "v"}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, "test:", 0)
	require.NoError(t, mr.Set("test:k", "{not json"))

	_, ok, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, "", 0)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), "k", GenerationResponse{}))
}

func TestRedisCacheBehindOrchestrator(t *testing.T) {
	_, client := newTestRedis(t)
	fake := newFake(ProviderAnthropic, DefaultModelAnthropic, "cached answer")

	cfg := testConfig()
	cfg.Cache = NewRedisCache(client, "", time.Hour)
	o := newTestOrchestrator(t, cfg, fake)

	for i := 0; i < 3; i++ {
		resp, err := o.GenerateContent(context.Background(), "p", "s", ProviderAnthropic)
		require.NoError(t, err)
		assert.Equal(t, "cached answer", resp.Content)
	}
	assert.Equal(t, 1, fake.callCount())
}
