package providers

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedEmbedder memoizes embeddings by exact input text.
// Repeated questions skip the remote call until the entry expires.
type CachedEmbedder struct {
	inner Embedder
	cache *cache.Cache
}

// NewCachedEmbedder wraps inner with a TTL cache. A non-positive ttl returns inner unchanged.
func NewCachedEmbedder(inner Embedder, ttl time.Duration) Embedder {
	if ttl <= 0 {
		return inner
	}
	return &CachedEmbedder{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Embed returns the cached vector for text or asks the wrapped embedder.
// Errors are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v.([]float32), nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(text, vec)
	return vec, nil
}

// ItemCount returns the number of cached embeddings
func (c *CachedEmbedder) ItemCount() int {
	return c.cache.ItemCount()
}
