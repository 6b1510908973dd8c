package llm

import (
	"fmt"

	"github.com/brizzai/auto-api/internal/config"
	"go.uber.org/fx"
)

// NewFromConfig builds the configured provider. Provider "none" yields nil,
// which callers treat as "no completion service".
func NewFromConfig(cfg config.LLMConfig) (Provider, error) {
	client := ClientConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		Burst:      cfg.Burst,
		MaxRetries: cfg.MaxRetries,
	}
	switch cfg.Provider {
	case "", config.LLMProviderOllama:
		return NewOllamaProvider(client, cfg.ChatModel, cfg.EmbeddingModel), nil
	case config.LLMProviderOpenAI:
		return NewOpenAIProvider(client, cfg.ChatModel, cfg.EmbeddingModel), nil
	case config.LLMProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// Module provides the configured Provider.
var Module = fx.Module("llm",
	fx.Provide(func(cfg *config.Config) (Provider, error) {
		return NewFromConfig(cfg.LLM)
	}),
)
