// Package ingest composes the chunker, the embedder and the vector index
// into the document ingestion pipeline, and provides the PDF and directory
// loaders that feed it.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"kbase/internal/catalog"
	"kbase/internal/chunker"
	"kbase/internal/embedder"
	"kbase/internal/vector"
)

// Chunking configuration is fixed so that chunk and re-chunk operations are
// reproducible across runs.
const (
	ChunkSize    = 512
	ChunkOverlap = 50
)

// BatchResult summarizes a multi-document ingest.
type BatchResult struct {
	Ingested int // documents that produced chunks
	Skipped  int // empty or whitespace-only documents
	Chunks   int // total chunks appended to the index
}

// Pipeline ingests documents: chunk, embed in one batch, reconcile
// dimensions, append to the index, record chunks in the catalog.
type Pipeline struct {
	chunker  *chunker.Fixed
	embedder embedder.Embedder
	index    *vector.Index
	catalog  *catalog.Catalog // optional; nil disables chunk resolution
}

// New creates an ingestion pipeline. cat may be nil.
func New(emb embedder.Embedder, ix *vector.Index, cat *catalog.Catalog) *Pipeline {
	return &Pipeline{
		chunker:  chunker.NewFixed(ChunkSize, ChunkOverlap),
		embedder: emb,
		index:    ix,
		catalog:  cat,
	}
}

// AddDocument ingests a single document. Empty or whitespace-only text is a
// no-op that succeeds without writing. Embedding and index failures are
// surfaced to the caller; the on-disk index is only touched after a
// successful embed, so a failure never corrupts persisted data.
func (p *Pipeline) AddDocument(ctx context.Context, text string, metadata map[string]string) error {
	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		log.Printf("ingest: skipping empty document")
		return nil
	}

	sourceID := metadata["source"]
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	for i := range chunks {
		chunks[i].SourceID = sourceID
	}

	if _, err := p.appendChunks(ctx, chunks, metadata); err != nil {
		return fmt.Errorf("ingest: add document: %w", err)
	}
	return nil
}

// AddDocuments ingests a batch of documents. Empty texts are filtered out
// first and counted as skipped; all chunks from the remaining documents are
// flattened into one embedding call and one index append. A failure in
// embedding or indexing aborts the whole batch and is reported once.
func (p *Pipeline) AddDocuments(ctx context.Context, texts []string) (BatchResult, error) {
	var result BatchResult
	var all []chunker.Chunk

	for _, text := range texts {
		chunks := p.chunker.Split(text)
		if len(chunks) == 0 {
			result.Skipped++
			continue
		}
		sourceID := uuid.NewString()
		for i := range chunks {
			chunks[i].SourceID = sourceID
		}
		all = append(all, chunks...)
		result.Ingested++
	}
	if result.Skipped > 0 {
		log.Printf("ingest: skipped %d empty documents", result.Skipped)
	}
	if len(all) == 0 {
		return result, nil
	}

	n, err := p.appendChunks(ctx, all, nil)
	if err != nil {
		return result, fmt.Errorf("ingest: add documents: %w", err)
	}
	result.Chunks = n
	return result, nil
}

// appendChunks embeds chunks in one batch, reconciles dimensions, appends to
// the index and records the chunks in the catalog.
func (p *Pipeline) appendChunks(ctx context.Context, chunks []chunker.Chunk, metadata map[string]string) (int, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	vectors = Reconcile(vectors, p.index.Dimensions())

	ids, err := p.index.Add(vectors)
	if err != nil {
		return 0, err
	}

	if p.catalog != nil {
		entries := make([]catalog.Entry, len(ids))
		for i, id := range ids {
			entries[i] = catalog.Entry{
				InternalID: id,
				SourceID:   chunks[i].SourceID,
				Ordinal:    chunks[i].Ordinal,
				Text:       chunks[i].Text,
				Metadata:   metadata,
			}
		}
		// The index is the source of truth; a catalog failure costs chunk
		// resolution, not data.
		if err := p.catalog.Put(ctx, entries); err != nil {
			log.Printf("ingest: catalog write failed: %v", err)
		}
	}

	return len(ids), nil
}

// Reconcile adjusts embedding vectors whose width disagrees with the index
// dimension: wider vectors are truncated, narrower ones right-padded with
// zeros. This is a best-effort compatibility shim for mismatched embedding
// backends, not a correctness guarantee; padded or truncated vectors lose
// comparability with vectors embedded at the native width.
func Reconcile(vectors [][]float32, dim int) [][]float32 {
	if len(vectors) == 0 || len(vectors[0]) == dim {
		return vectors
	}

	got := len(vectors[0])
	if got > dim {
		log.Printf("ingest: truncating embeddings from %d to %d dimensions", got, dim)
	} else {
		log.Printf("ingest: padding embeddings from %d to %d dimensions", got, dim)
	}

	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) >= dim {
			out[i] = v[:dim]
			continue
		}
		padded := make([]float32, dim)
		copy(padded, v)
		out[i] = padded
	}
	return out
}
