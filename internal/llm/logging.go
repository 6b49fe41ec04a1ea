package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/store"
)

// LoggingProvider logs every call and appends it to the LLM event log.
type LoggingProvider struct {
	inner Provider
	name  string
	repo  store.EventRepo
	log   *logger.Logger
}

// WithLogging wraps p. name is the vendor label stored with each event and
// defaults to the model ID. A nil repo only logs.
func WithLogging(p Provider, name string, repo store.EventRepo, log *logger.Logger) Provider {
	if name == "" {
		name = p.ModelID()
	}
	return &LoggingProvider{inner: p, name: name, repo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	l.record(ctx, req, resp, err, time.Since(start))
	return resp, err
}

func (l *LoggingProvider) record(ctx context.Context, req Request, resp *Response, err error, took time.Duration) {
	ev := store.LLMRequestEventData{
		Provider:    l.name,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		ev.InputTokens, ev.OutputTokens = resp.Usage.InputTokens, resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}

	log := l.log.With("provider", l.name, "model", ev.Model, "purpose", ev.Purpose, "latency_ms", ev.LatencyMs)
	if err != nil {
		ev.ErrorMessage = err.Error()
		log.Warn("llm request failed", "error", err)
	} else {
		log.Debug("llm request", "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)
	}

	if l.repo == nil {
		return
	}
	// Detached from ctx: a request that timed out is still worth recording.
	if rerr := l.repo.AppendLLMRequest(context.WithoutCancel(ctx), ev); rerr != nil {
		log.Warn("record llm request event", "error", rerr)
	}
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// transcript renders req as the stored request body.
func transcript(req Request) string {
	var b strings.Builder
	section := func(label, body string) {
		if body != "" {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", label, body)
		}
	}
	section("system", req.System)
	section("user", req.Prompt)
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
