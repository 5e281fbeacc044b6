// Package embedder turns text into vectors for the semantic half of hybrid
// search. Providers return unit-length vectors so cosine similarity can be
// recovered from L2 distance downstream.
package embedder

import (
	"context"
	"fmt"
	"math"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
)

// Embedder produces a fixed-width vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// New builds the configured provider, wrapped in a read-through cache when
// one is enabled.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case "ollama":
		base = newOllama(cfg.BaseURL, cfg.Model, cfg.Dimensions)
	case "openai":
		base = newOpenAI(cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		return newCached(base, cfg.CacheSize)
	}
	return base, nil
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
