package models

import "context"

// TextGenerator is the core interface for text-generation backends.
// Never call a specific backend directly — always inject this interface.
type TextGenerator interface {
	// Generate returns the completion for the given request.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Name returns the backend identifier (e.g., "groq", "openai").
	Name() string
}

// GenerateRequest is the input to a text-generation call.
type GenerateRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
	// JSONMode constrains the backend to emit a well-formed JSON object.
	JSONMode bool
}
