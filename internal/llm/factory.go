package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/store"
)

// NewProvider creates a Provider from configuration. Real providers are
// wrapped so that every call is bounded by cfg.Timeout, retried on
// transient failure and recorded to eventRepo (when non-nil) and log.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log zerolog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → retry → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry, log)

	return WithTimeout(retried, cfg.Timeout), nil
}

// ResolveConfig returns the ESLENS_* configuration when it validates and
// otherwise falls back to the first standard API key found in the
// environment.
func ResolveConfig() (Config, error) {
	cfg := ConfigFromEnv()
	verr := cfg.Validate()
	if verr == nil {
		return cfg, nil
	}
	if discovered, ok := DiscoverConfig(); ok {
		return discovered, nil
	}
	return Config{}, fmt.Errorf("no LLM provider configured: %w", verr)
}

// NewProviderFromEnv resolves configuration from the environment and builds
// the decorated provider.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, log zerolog.Logger) (Provider, error) {
	cfg, err := ResolveConfig()
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, eventRepo, log)
}
