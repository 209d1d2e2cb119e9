package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config selects and configures the oracle behind every pipeline stage.
type Config struct {
	// Provider is one of "gemini", "anthropic", "openai", "openrouter", "mock".
	// Every real provider must accept image input for homework extraction.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single generation including retries. Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-sonnet"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenRouter or compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash", i.e. google/gemini-2.5-flash
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the Gemini-first defaults. Vision extraction needs a
// multimodal model, so the defaults pick one per provider.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// credentials lists the providers that need a key, in discovery order, with
// the ESLens-specific variable and the vendor's conventional one.
var credentials = []struct {
	provider  string
	envPrefix string
	vendorKey string
	key       func(*Config) *string
	model     func(*Config) *string
}{
	{"gemini", "ESLENS_GEMINI", "GEMINI_API_KEY",
		func(c *Config) *string { return &c.Gemini.APIKey },
		func(c *Config) *string { return &c.Gemini.Model }},
	{"openai", "ESLENS_OPENAI", "OPENAI_API_KEY",
		func(c *Config) *string { return &c.OpenAI.APIKey },
		func(c *Config) *string { return &c.OpenAI.Model }},
	{"anthropic", "ESLENS_ANTHROPIC", "ANTHROPIC_API_KEY",
		func(c *Config) *string { return &c.Anthropic.APIKey },
		func(c *Config) *string { return &c.Anthropic.Model }},
	{"openrouter", "ESLENS_OPENROUTER", "OPENROUTER_API_KEY",
		func(c *Config) *string { return &c.OpenRouter.APIKey },
		func(c *Config) *string { return &c.OpenRouter.Model }},
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ConfigFromEnv applies ESLENS_* variables on top of DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	setFromEnv(&cfg.Provider, "ESLENS_LLM_PROVIDER")
	for _, c := range credentials {
		setFromEnv(c.key(&cfg), c.envPrefix+"_API_KEY")
		setFromEnv(c.model(&cfg), c.envPrefix+"_MODEL")
	}
	setFromEnv(&cfg.OpenAI.BaseURL, "ESLENS_OPENAI_BASE_URL")

	if d, err := time.ParseDuration(os.Getenv("ESLENS_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("ESLENS_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// DiscoverConfig picks the first provider whose vendor API key variable is
// set (GEMINI_API_KEY, then OpenAI, Anthropic, OpenRouter).
func DiscoverConfig() (Config, bool) {
	for _, c := range credentials {
		k := os.Getenv(c.vendorKey)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = c.provider
		*c.key(&cfg) = k
		return cfg, true
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	for _, cred := range credentials {
		if cred.provider != c.Provider {
			continue
		}
		if *cred.key(&c) == "" {
			return fmt.Errorf("%s_API_KEY is required for the %s provider", cred.envPrefix, c.Provider)
		}
		return nil
	}
	return fmt.Errorf("unknown LLM provider: %q", c.Provider)
}
