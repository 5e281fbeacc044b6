package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dgraph-io/ristretto"
)

// cachedEmbedder fronts a provider with a ristretto cache keyed by a hash of
// the input text. Repeat embeddings of the same memory text (reindex, retry,
// backfill restart) skip the provider round trip.
type cachedEmbedder struct {
	base  Embedder
	cache *ristretto.Cache
}

func newCached(base Embedder, size int64) (*cachedEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &cachedEmbedder{base: base, cache: cache}, nil
}

func (c *cachedEmbedder) Dimensions() int {
	return c.base.Dimensions()
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.base.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, 1)
	return vec, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
