package driven

import "context"

// Embedder maps text to a fixed-length numeric vector.
//
// The only contract other components rely on: the same text always
// produces the same vector, and the vector length equals Dimensions()
// on every call. Implementations may be a deterministic placeholder or
// a model-backed service; swapping one for the other must not touch the
// chunker or the vector store.
type Embedder interface {
	// Embed generates a vector for the given text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates vectors for multiple texts. More efficient
	// than calling Embed in a loop for remote providers.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the fixed vector length.
	Dimensions() int

	// ModelName identifies the backing model for logs and artifacts.
	ModelName() string

	// Mock reports whether vectors are placeholder output rather than a
	// real embedding model. The flag is carried on pipeline results so
	// callers never have to infer provenance from the runner's type.
	Mock() bool
}
