package folio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces cached responses.
const DefaultRedisKeyPrefix = "folio:gen:"

// RedisCache is a ResponseCache shared across processes. Entries are stored
// as JSON under keyPrefix+key and expire after ttl (0 keeps them forever).
type RedisCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache wraps client. An empty keyPrefix means DefaultRedisKeyPrefix.
func NewRedisCache(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Get reports a miss, not an error, when the key is absent.
func (r *RedisCache) Get(ctx context.Context, key string) (GenerationResponse, bool, error) {
	raw, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return GenerationResponse{}, false, nil
	}
	if err != nil {
		return GenerationResponse{}, false, fmt.Errorf("redis get: %w", err)
	}

	var resp GenerationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return GenerationResponse{}, false, fmt.Errorf("decode cached response: %w", err)
	}
	return resp, true, nil
}

// Set stores resp as JSON with the cache TTL.
func (r *RedisCache) Set(ctx context.Context, key string, resp GenerationResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := r.client.Set(ctx, r.keyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
