package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one grading prompt to a model and returns its reply.
type Provider interface {
	// Generate returns the reply to req. With a Schema the reply is JSON
	// already checked against it.
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System string
	Prompt string
	// Schema asks for a structured reply through the provider's native
	// mechanism. Nil returns the raw text.
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Schema is a named JSON Schema for a structured reply.
type Schema struct {
	// Name is kebab-case. Anthropic and OpenAI send it along with the schema.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a model reply.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	// Model is the model that served the request, which may differ from the
	// configured alias.
	Model string
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
