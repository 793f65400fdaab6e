package schemas

import "context"

// GenerationRequest encapsulates a complete request to the LLM: the system
// prompt establishing the agent's persona and the user prompt carrying the
// code and instructions.
type GenerationRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

// LLMClient defines a standard interface for interacting with a Large
// Language Model, abstracting the specifics of the underlying provider
// (e.g., OpenRouter).
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	// Terminal transport failures (rate-limit exhaustion, repeated
	// timeouts) are returned as typed errors, never panics.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
