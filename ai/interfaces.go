package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// ModelInfo describes the model backing this embedder.
	ModelInfo() ModelInfo
}

// ModelInfo describes an embedding model.
type ModelInfo struct {
	// Name is the model identifier, e.g. "embeddinggemma".
	Name string

	// Provider names the backing service, e.g. "openai" or "mock".
	Provider string

	// Dimension is the width of produced vectors.
	Dimension int
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages an Embedder
// instance, ensuring configuration and resources are shared appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
