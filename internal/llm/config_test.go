package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest/internal/store"
)

func clearVendorKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "LINGOQUEST_LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_DefaultsToDisabled(t *testing.T) {
	clearVendorKeys(t)

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderNone, cfg.Provider)
	assert.False(t, cfg.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("LINGOQUEST_LLM_PROVIDER", "openrouter")
	t.Setenv("LINGOQUEST_OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("LINGOQUEST_OPENROUTER_MODEL", "openai/gpt-4o-mini")
	t.Setenv("LINGOQUEST_LLM_TIMEOUT", "3s")
	t.Setenv("LINGOQUEST_LLM_MAX_ATTEMPTS", "4")

	cfg := ConfigFromEnv()
	assert.Equal(t, "openrouter", cfg.Provider)
	assert.Equal(t, "sk-or-test", cfg.OpenRouter.APIKey)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.OpenRouter.Model)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_DiscoversVendorKey(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg := ConfigFromEnv()
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "gemini"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINGOQUEST_GEMINI_API_KEY")

	cfg.Gemini.APIKey = "g-test"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "karaoke"
	assert.Error(t, cfg.Validate())

	cfg.Provider = "mock"
	assert.NoError(t, cfg.Validate())
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderNone}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "openrouter"}, nil, nil)
	assert.Error(t, err)
}

type recordingRepo struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"verdict":true,"feedback":"ok"}`), Usage: Usage{InputTokens: 12, OutputTokens: 4}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}},
	)
	repo := &recordingRepo{}
	p := WithLogging(mock, "anthropic", repo, nil)

	ctx := WithPurpose(context.Background(), "coherence-judge")
	_, err := p.Generate(ctx, Request{System: "grade", Prompt: "hi"})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 2)
	ok := repo.events[0]
	assert.Equal(t, "anthropic", ok.Provider)
	assert.Equal(t, "mock", ok.Model)
	assert.Equal(t, "coherence-judge", ok.Purpose)
	assert.True(t, ok.Success)
	assert.Equal(t, 12, ok.InputTokens)
	assert.Contains(t, ok.RequestBody, "[system]\ngrade")
	assert.Contains(t, ok.RequestBody, "[user]\nhi")
	assert.JSONEq(t, `{"verdict":true,"feedback":"ok"}`, ok.ResponseBody)

	failed := repo.events[1]
	assert.False(t, failed.Success)
	assert.NotEmpty(t, failed.ErrorMessage)
}

func TestLoggingProvider_RepoFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	repo := &recordingRepo{err: errors.New("disk full")}

	_, err := WithLogging(mock, "", repo, nil).Generate(context.Background(), Request{})
	assert.NoError(t, err)
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.75, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("no-such-model"))
}
