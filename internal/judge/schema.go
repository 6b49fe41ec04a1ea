package judge

import "github.com/lingoquest/lingoquest/internal/llm"

// VerdictSchema is the structured output requested from the provider.
var VerdictSchema = &llm.Schema{
	Name:        "coherence-verdict",
	Description: "Whether a learner's free-text answer is a coherent, on-task response",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdict": map[string]any{
				"type":        "boolean",
				"description": "true when the answer is coherent and answers the task",
			},
			"feedback": map[string]any{
				"type":        "string",
				"maxLength":   280,
				"description": "One or two short sentences of encouraging feedback for the learner",
			},
		},
		"required":             []any{"verdict", "feedback"},
		"additionalProperties": false,
	},
}
