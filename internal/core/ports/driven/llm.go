// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService streams completions from a language model.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI and compatible servers
//   - Anthropic (Claude)
type LLMService interface {
	// Stream submits a prompt and returns the backend's token stream.
	// The request is in flight once Stream returns; the caller must Close the stream.
	Stream(ctx context.Context, prompt string, opts GenerateOptions) (TokenStream, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// TokenStream is a pull iterator over generated text fragments.
type TokenStream interface {
	// Next returns the next non-empty fragment.
	// It returns io.EOF once the backend signals the end of generation.
	// A stream that ends without that signal returns a transport error.
	Next() (string, error)

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is the nucleus sampling threshold. Zero leaves the backend default.
	TopP float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
