package adapter

import "context"

// LLM is the interface for text completion providers. Implementations attempt
// each call exactly once; retries are the caller's decision (and the pipeline
// never retries).
type LLM interface {
	// Complete sends a prompt and returns the generated text
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Embedder converts text to fixed-dimensionality vectors. On soft failure an
// implementation returns the all-zero sentinel vector instead of an error so
// callers can detect "no real embedding" cheaply; hard failures return an
// error.
type Embedder interface {
	// Embed converts a single text to an embedding vector
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embedding vectors
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size
	Dimensions() int
}

// IsZeroVector reports whether v is the all-zero sentinel (or empty).
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ZeroVector returns the all-zero sentinel of the given dimensionality.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}
