package embedder

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// openaiEmbedder calls an OpenAI-compatible embeddings API.
type openaiEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

func newOpenAI(baseURL, model, apiKey string, dims int) *openaiEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openaiEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

func (e *openaiEmbedder) Dimensions() int {
	return e.dims
}

func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}
	// Only third-generation models accept a requested width.
	if strings.HasPrefix(e.model, "text-embedding-3") {
		req.Dimensions = e.dims
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	vec := resp.Data[0].Embedding
	if len(vec) != e.dims {
		return nil, fmt.Errorf("openai returned %d dimensions, expected %d", len(vec), e.dims)
	}
	return Normalize(vec), nil
}
