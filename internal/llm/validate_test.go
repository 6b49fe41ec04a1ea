package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verdictSchema() *Schema {
	return &Schema{
		Name: "test-verdict",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"verdict":  map[string]any{"type": "boolean"},
				"feedback": map[string]any{"type": "string", "maxLength": 20},
				"score":    map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
			},
			"required":             []any{"verdict", "feedback"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"complete", `{"verdict":true,"feedback":"Well done","score":4}`, true},
		{"optional omitted", `{"verdict":false,"feedback":"Off topic"}`, true},
		{"thai feedback", `{"verdict":true,"feedback":"เก่งมาก"}`, true},
		{"missing verdict", `{"feedback":"hi"}`, false},
		{"verdict as string", `{"verdict":"yes","feedback":"hi"}`, false},
		{"feedback too long", `{"verdict":true,"feedback":"this feedback is far too long"}`, false},
		{"score out of range", `{"verdict":true,"feedback":"ok","score":9}`, false},
		{"extra field", `{"verdict":true,"feedback":"ok","mood":"happy"}`, false},
		{"not an object", `"yes"`, false},
		{"not json", `verdict: yes`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateResponse(verdictSchema(), json.RawMessage(tc.raw))
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tc.raw, string(inv.Content))
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`not json at all`)))
}

func TestValidateResponse_CachesBySchemaName(t *testing.T) {
	s := &Schema{Name: "test-cache", Definition: map[string]any{"type": "object"}}
	require.NoError(t, validateResponse(s, json.RawMessage(`{}`)))

	_, ok := compiled.Load("test-cache")
	assert.True(t, ok)
	assert.NoError(t, validateResponse(s, json.RawMessage(`{"a":1}`)))
}

func TestCheckReply(t *testing.T) {
	cut := json.RawMessage(`{"verdict":tr`)

	var maxTok *ErrMaxTokensExceeded
	require.ErrorAs(t, checkReply(verdictSchema(), cut, true), &maxTok)
	assert.Equal(t, cut, maxTok.Content)

	var inv *ErrInvalidResponse
	assert.ErrorAs(t, checkReply(verdictSchema(), cut, false), &inv)
	assert.NoError(t, checkReply(verdictSchema(), json.RawMessage(`{"verdict":true,"feedback":"ok"}`), false))
	assert.NoError(t, checkReply(nil, cut, true), "raw text is never checked")
}
