package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.5-flash-lite", resolveModel("gemini-flash-lite", geminiModels))
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-2.0-flash", geminiModels))
	assert.NotNil(t, LookupCost(resolveModel("gemini-flash", geminiModels)))
}

func TestBuildGeminiSchema_Verdict(t *testing.T) {
	schema := buildGeminiSchema(verdictSchema().Definition)

	assert.Equal(t, genai.TypeObject, schema.Type)
	require.Len(t, schema.Properties, 3)
	assert.Equal(t, genai.TypeBoolean, schema.Properties["verdict"].Type)
	assert.Equal(t, genai.TypeString, schema.Properties["feedback"].Type)
	assert.Equal(t, genai.TypeInteger, schema.Properties["score"].Type)

	require.NotNil(t, schema.Properties["feedback"].MaxLength)
	assert.Equal(t, int64(20), *schema.Properties["feedback"].MaxLength)

	assert.Equal(t, []string{"verdict", "feedback"}, schema.Required)
	assert.Equal(t, []string{"verdict", "feedback", "score"}, schema.PropertyOrdering)
}

func TestBuildGeminiSchema_Nested(t *testing.T) {
	schema := buildGeminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level": map[string]any{"type": "string", "enum": []any{"EASY", "MEDIUM", "HARD"}},
			"missing": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	})

	assert.Equal(t, []string{"EASY", "MEDIUM", "HARD"}, schema.Properties["level"].Enum)
	assert.Equal(t, genai.TypeArray, schema.Properties["missing"].Type)
	assert.Equal(t, genai.TypeString, schema.Properties["missing"].Items.Type)
	assert.Empty(t, schema.Required)
	assert.Equal(t, []string{"level", "missing"}, schema.PropertyOrdering)
}
