package embedding

import (
	"context"
	"fmt"
)

// Provider identifies an embedding provider implementation.
type Provider string

const (
	// ProviderOllama embeds via a local Ollama server.
	ProviderOllama Provider = "ollama"
	// ProviderOpenAI embeds via an OpenAI-compatible endpoint.
	ProviderOpenAI Provider = "openai"
	// ProviderMock is a deterministic hash-based embedder for tests and offline use.
	ProviderMock Provider = "mock"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider   string
	BaseURL    string
	Model      string
	APIKeyEnv  string
	Dimensions int // mock only
	CacheSize  int // 0 disables caching
}

// NewEmbedder creates the embedder named by cfg.Provider, wrapped in an
// LRU cache when cfg.CacheSize is positive.
// Supported providers: "ollama", "openai", "mock" (default).
func NewEmbedder(ctx context.Context, cfg Config) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)
	switch Provider(cfg.Provider) {
	case ProviderOllama:
		inner, err = NewOllamaEmbedder(ctx, cfg.BaseURL, cfg.Model)
	case ProviderOpenAI:
		inner, err = NewOpenAIEmbedder(ctx, OpenAIConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKeyEnv: cfg.APIKeyEnv,
		})
	case ProviderMock, "":
		inner = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: ollama, openai, mock)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(inner, cfg.CacheSize), nil
	}
	return inner, nil
}
