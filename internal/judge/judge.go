// Package judge asks an LLM whether a learner's open-ended answer is a
// coherent response to its task. Every call is bounded by a timeout, and any
// failure is reported as *UnavailableError so callers can fall back to a
// deterministic check.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/lingoquest/lingoquest/internal/llm"
)

// DefaultTimeout bounds a single verdict request.
const DefaultTimeout = 8 * time.Second

// Request is the input to a coherence judgment.
type Request struct {
	GameType  string
	Task      string   // the prompt shown to the learner
	Context   string   // reference passage or story so far
	Candidate string   // the learner's answer
	Keywords  []string // words the answer is expected to use
}

// Verdict is the judge's decision.
type Verdict struct {
	OK       bool   `json:"verdict"`
	Feedback string `json:"feedback"`
}

// UnavailableError reports that no verdict could be obtained.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("coherence judge unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is or wraps an UnavailableError.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}

// Config holds generation settings.
type Config struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// Judge evaluates answers with an LLM provider.
type Judge struct {
	provider llm.Provider
	cfg      Config
}

// New creates a Judge. A nil provider yields a judge that is always
// unavailable.
func New(provider llm.Provider, cfg Config) *Judge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Judge{provider: provider, cfg: cfg}
}

// Evaluate returns the provider's verdict on req.
func (j *Judge) Evaluate(ctx context.Context, req Request) (Verdict, error) {
	if j == nil || j.provider == nil {
		return Verdict{}, &UnavailableError{Err: errors.New("no provider configured")}
	}

	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, "coherence-judge", req.GameType), j.cfg.Timeout)
	defer cancel()

	userMsg, err := buildJudgeMessage(req)
	if err != nil {
		return Verdict{}, &UnavailableError{Err: fmt.Errorf("build judge prompt: %w", err)}
	}

	resp, err := j.provider.Generate(ctx, llm.Request{
		System:      judgeSystemPrompt,
		Prompt:      userMsg,
		Schema:      VerdictSchema,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
	})
	if err != nil {
		return Verdict{}, &UnavailableError{Err: err}
	}

	var v Verdict
	if err := json.Unmarshal(resp.Content, &v); err != nil {
		return Verdict{}, &UnavailableError{Err: fmt.Errorf("parse verdict: %w", err)}
	}
	v.Feedback = strings.TrimSpace(v.Feedback)
	return v, nil
}

const judgeSystemPrompt = `You grade short answers written by language learners in a chat-based practice game.

Instructions:
- Decide whether the answer is a coherent, on-topic response to the task.
- Minor grammar and spelling mistakes are acceptable; nonsense, copy-paste of the task, or off-topic text is not.
- If target words are listed, the answer should use them naturally.
- Feedback must be one or two short, encouraging sentences addressed to the learner.`

var judgeUserTemplate = template.Must(template.New("judge").Parse(`Game: {{.GameType}}
Task: {{.Task}}
{{if .Context}}Reference:
{{.Context}}
{{end}}{{if .Keywords}}Target words: {{range $i, $k := .Keywords}}{{if $i}}, {{end}}{{$k}}{{end}}
{{end}}Learner's answer:
{{.Candidate}}`))

func buildJudgeMessage(req Request) (string, error) {
	var buf bytes.Buffer
	if err := judgeUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
