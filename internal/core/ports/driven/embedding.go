package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations must return unit-normalized vectors of a fixed
// dimension so that inner product equals cosine similarity, and must
// fail with domain.ErrDimensionMismatch rather than pad or truncate
// when the model returns an unexpected dimension.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// The model call may take hundreds of milliseconds or more.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. It is
	// element-wise equivalent to calling Embed per text; batching is
	// only an optimisation.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
