package chat

import "context"

// Backend turns a conversation and resolved parameters into raw generated
// text. Implementations must be safe for concurrent use once constructed.
type Backend interface {
	Generate(ctx context.Context, msgs []Message, p Resolved) (Completion, error)
}

// Completion is the raw output of a Backend.
type Completion struct {
	// Text is the generated text before any post-processing.
	Text string
	// Prompt is the exact prompt string fed to the model, if the backend built
	// one. Remote backends send structured messages and leave it empty.
	Prompt string
}

// Factory builds the process Backend. It is invoked lazily by Service and may
// be called again after a failed attempt.
type Factory func(ctx context.Context) (Backend, error)
