// Package llm provides the completion client behind classification, keyword
// extraction, and re-ranking. Providers sit behind a single-method interface
// so everything above tests with deterministic stand-ins.
package llm

import (
	"context"
	"fmt"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
)

// Client produces one completion for a system + user prompt pair.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// New builds the configured provider. Provider "none" or empty returns a nil
// Client: assist treats that as disabled and uses its fallbacks.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "claude":
		return newClaude(cfg.APIKey, cfg.Model), nil
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return newOpenAICompatible(cfg.APIKey, baseURL, model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "qwen3:4b"
		}
		// Ollama's OpenAI-compatible endpoint
		return newOpenAICompatible("ollama", baseURL+"/v1", model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
