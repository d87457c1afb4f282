package llm

import "errors"

// NewOpenRouterProvider creates a provider for OpenRouter, which exposes an
// OpenAI-compatible API. Model names are passed through unchanged.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openrouter model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return newOpenAICompatible(cfg.APIKey, baseURL, cfg.Model), nil
}
