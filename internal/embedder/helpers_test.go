package embedder

import "github.com/trfife/BarnabeeNet-sub002/internal/config"

func testEmbedderConfig() config.EmbedderConfig {
	return config.EmbedderConfig{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Model:      "nomic-embed-text",
		Dimensions: 768,
		CacheSize:  0,
	}
}
