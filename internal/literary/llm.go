// Package literary analyzes Tamil poems with a language model. It defines a
// provider-agnostic LLM interface with an OpenAI implementation and a
// deterministic mock, the structured Analysis produced for a poem, and the
// prompts used for analysis and for retrieval-augmented chat.
package literary

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed             = errors.New("LLM request failed")
	ErrInvalidConfig         = errors.New("invalid LLM configuration")
	ErrUpstreamEmptyResponse = errors.New("no valid response from LLM")
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text from a prompt using the configured model.
	// Returns the generated text or an error if generation fails.
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "gpt-4o-mini")
	Model string

	// Temperature controls randomness (0.0 = provider default)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string

	// BaseURL overrides the provider endpoint, e.g. for an OpenAI-compatible gateway
	BaseURL string
}

// DefaultLLMConfig returns the defaults used for analysis and chat.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0, // model default
		MaxTokens:   2000,
	}
}
