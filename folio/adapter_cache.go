package folio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// ResponseCache memoizes successful generations. Implementations must be safe
// for concurrent use.
type ResponseCache interface {
	Get(ctx context.Context, key string) (GenerationResponse, bool, error)
	Set(ctx context.Context, key string, resp GenerationResponse) error
}

// cacheKey is deterministic over everything that shapes a response.
func cacheKey(p Provider, model, system, prompt string) string {
	h := sha256.New()
	for _, part := range []string{string(p), model, system, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type cachingAdapter struct {
	Adapter
	cache ResponseCache
	log   zerolog.Logger
}

func (c *cachingAdapter) GenerateText(ctx context.Context, prompt, system string) (GenerationResponse, error) {
	key := cacheKey(c.Provider(), c.Model(), system, prompt)

	resp, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("provider", string(c.Provider())).Msg("response cache read failed")
	case ok:
		c.log.Debug().Str("provider", string(c.Provider())).Msg("response cache hit")
		return resp, nil
	}

	resp, err = c.Adapter.GenerateText(ctx, prompt, system)
	if err != nil {
		return resp, err
	}
	if err := c.cache.Set(ctx, key, resp); err != nil {
		c.log.Warn().Err(err).Str("provider", string(c.Provider())).Msg("response cache write failed")
	}
	return resp, nil
}

// MemoryCache is an in-process ResponseCache with a TTL and a size bound.
// When full, the least recently used entry is evicted.
type MemoryCache struct {
	lru    *expirable.LRU[string, GenerationResponse]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates a cache holding at most maxSize entries for ttl.
// A zero ttl keeps entries until they are evicted.
func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &MemoryCache{lru: expirable.NewLRU[string, GenerationResponse](maxSize, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (GenerationResponse, bool, error) {
	resp, ok := m.lru.Get(key)
	if !ok {
		m.misses.Add(1)
		return GenerationResponse{}, false, nil
	}
	m.hits.Add(1)
	return resp, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, resp GenerationResponse) error {
	m.lru.Add(key, resp)
	return nil
}

// Stats returns hit and miss counters.
func (m *MemoryCache) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

// Len reports the number of stored entries. Expired entries may be counted
// until the background sweep removes them.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}

// Clear drops all entries and resets the counters.
func (m *MemoryCache) Clear() {
	m.lru.Purge()
	m.hits.Store(0)
	m.misses.Store(0)
}
