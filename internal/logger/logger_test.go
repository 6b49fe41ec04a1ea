package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"api_key", "sk-123", "user", 7, "input_tokens", 50, "dangling"})
	assert.Equal(t, []interface{}{"api_key", "[REDACTED]", "user", 7, "input_tokens", 50, "dangling"}, got)
}

func TestLogger_RedactsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("game_type", "summarize").Warn("judge unavailable", "auth_token", "abc", "err", "timeout")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "summarize", ctx["game_type"])
		assert.Equal(t, "[REDACTED]", ctx["auth_token"])
		assert.Equal(t, "timeout", ctx["err"])
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored", "k", "v")
	assert.Nil(t, l.With("k", "v"))
	Nop().Error("discarded")
}
