package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ProviderNone disables the coherence judge; open-ended answers are then
// graded by keyword coverage alone.
const ProviderNone = "none"

// Config selects and configures the judge's model provider.
type Config struct {
	// Provider is one of anthropic, openai, gemini, openrouter, mock or none.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single judge call, retries included.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig shapes the exponential backoff of RetryProvider.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the defaults. The judge sits on the answer path of a
// chat reply, so retries are short.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderNone,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 300 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 8 * time.Second,
	}
}

// apiKey returns where the key of a keyed provider lives, and its
// LINGOQUEST_ variable prefix.
func (c *Config) apiKey(provider string) (key *string, env string, ok bool) {
	switch provider {
	case "anthropic":
		return &c.Anthropic.APIKey, "LINGOQUEST_ANTHROPIC", true
	case "openai":
		return &c.OpenAI.APIKey, "LINGOQUEST_OPENAI", true
	case "gemini":
		return &c.Gemini.APIKey, "LINGOQUEST_GEMINI", true
	case "openrouter":
		return &c.OpenRouter.APIKey, "LINGOQUEST_OPENROUTER", true
	}
	return nil, "", false
}

// ConfigFromEnv reads LINGOQUEST_LLM_* and the per-provider LINGOQUEST_*
// variables over the defaults. Without LINGOQUEST_LLM_PROVIDER the vendors'
// own key variables pick the provider, see DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if discovered, ok := DiscoverConfig(); ok {
		cfg = discovered
	}

	strs := map[string]*string{
		"LINGOQUEST_LLM_PROVIDER":        &cfg.Provider,
		"LINGOQUEST_ANTHROPIC_MODEL":     &cfg.Anthropic.Model,
		"LINGOQUEST_OPENAI_MODEL":        &cfg.OpenAI.Model,
		"LINGOQUEST_OPENAI_BASE_URL":     &cfg.OpenAI.BaseURL,
		"LINGOQUEST_GEMINI_MODEL":        &cfg.Gemini.Model,
		"LINGOQUEST_OPENROUTER_MODEL":    &cfg.OpenRouter.Model,
		"LINGOQUEST_OPENROUTER_BASE_URL": &cfg.OpenRouter.BaseURL,
	}
	for _, p := range vendorKeys {
		key, env, _ := cfg.apiKey(p.provider)
		strs[env+"_API_KEY"] = key
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if d, err := time.ParseDuration(os.Getenv("LINGOQUEST_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("LINGOQUEST_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// vendorKeys lists the vendors' own key variables in discovery order.
var vendorKeys = []struct{ provider, env string }{
	{"gemini", "GEMINI_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// DiscoverConfig selects the first provider in vendorKeys whose key variable
// is set.
func DiscoverConfig() (Config, bool) {
	for _, v := range vendorKeys {
		k := os.Getenv(v.env)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = v.provider
		key, _, _ := cfg.apiKey(v.provider)
		*key = k
		return cfg, true
	}
	return Config{}, false
}

// Enabled reports whether a judge provider is configured.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks that the selected provider is known and has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "mock", ProviderNone, "":
		return nil
	}
	key, env, ok := c.apiKey(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *key == "" {
		return fmt.Errorf("%s_API_KEY is required for the %s provider", env, c.Provider)
	}
	return nil
}
