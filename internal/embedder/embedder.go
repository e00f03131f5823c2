// Package embedder defines the embedding capability boundary. Embedding
// models are external: the pipeline depends only on the Embedder interface,
// and implementations here are clients for remote services plus a
// deterministic stub for offline use.
package embedder

import (
	"context"
	"errors"
)

// ErrEmbedding marks failures propagated from an embedding backend. Batch
// embedding calls are all-or-nothing: a failure invalidates the whole call.
var ErrEmbedding = errors.New("embedder: embedding failed")

// Embedder converts text to fixed-dimension vectors. Implementations must be
// deterministic within a process run: the same input text always maps to the
// same vector.
type Embedder interface {
	// Embed converts texts to vectors in one batched call. The result has
	// the same length and order as texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne converts a single text to a vector.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// Name identifies the embedder.
	Name() string
}
