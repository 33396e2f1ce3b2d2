// Package hash provides a deterministic mock embedder. Vectors are
// derived from the SHA-256 digest of the input text, so identical text
// always embeds to the identical vector and no network access is
// needed. Useful for local pipelines and tests; the geometry carries
// no semantic meaning.
package hash

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/loankit/docpipe/internal/core/ports/driven"
)

// Dimensions is the vector width: one component per digest byte.
const Dimensions = sha256.Size

// ModelName identifies hash-embedded vectors in stored metadata.
const ModelName = "hash-sha256"

// Embedder maps text to a 32-dimensional vector by scaling each digest
// byte into [0, 1].
type Embedder struct{}

var _ driven.Embedder = (*Embedder)(nil)

// New creates a hash embedder.
func New() *Embedder {
	return &Embedder{}
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	digest := sha256.Sum256([]byte(text))
	vector := make([]float64, Dimensions)
	for i, b := range digest {
		vector[i] = float64(b) / 255.0
	}
	return vector, nil
}

// EmbedBatch embeds each text in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Dimensions returns the vector width.
func (e *Embedder) Dimensions() int { return Dimensions }

// ModelName returns the embedder identity.
func (e *Embedder) ModelName() string { return ModelName }

// Mock reports that vectors carry no semantic meaning.
func (e *Embedder) Mock() bool { return true }
