package llm

import (
	"context"
)

// Client defines the interface for LLM providers.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Request is a single non-streaming completion request.
type Request struct {
	Prompt      string
	Temperature float64
}

// Response contains the generated text.
type Response struct {
	Text  string
	Model string
}
