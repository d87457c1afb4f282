package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller -> retry -> timeout -> logging -> base. It returns nil when cfg selects no
// provider. repo and log may be nil.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, log *logger.Logger) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, repo, log)
	return WithRetry(WithTimeout(logged, cfg.Timeout), cfg.Retry, log), nil
}
