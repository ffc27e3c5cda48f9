package oracle

import (
	"context"
	"errors"
)

// Transcriber converts raw audio bytes into text. The text may be empty when
// the audio contains no recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Embedder converts text into a dense float32 vector. Dimension must be
// constant across calls.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Generator produces text from a system/user prompt pair with the given
// sampling parameters.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error)
}

// Common errors.
var (
	// ErrEmptyInput is returned when the input text or audio is empty.
	ErrEmptyInput = errors.New("oracle: empty input")
)
