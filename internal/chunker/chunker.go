// Package chunker splits raw document text into bounded, overlapping token
// windows. Splitting is a pure function of its input: the same text with the
// same parameters always yields the same ordered chunk sequence.
package chunker

// Chunk is a bounded slice of a document's text, the unit of embedding and
// indexing. Ordinal is the chunk's position within its source document.
type Chunk struct {
	Text     string
	SourceID string
	Ordinal  int
}

// Chunker splits document text into chunks.
type Chunker interface {
	Split(text string) []Chunk
}
