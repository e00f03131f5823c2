package chunker

import "strings"

// Fixed splits text into fixed-size token windows with a configurable
// overlap between consecutive windows. Tokenization is whitespace-based
// (strings.Fields), which is stable across calls within a process.
type Fixed struct {
	chunkSize int
	overlap   int
}

// NewFixed creates a fixed-size chunker. Out-of-range parameters are
// clamped: chunkSize must be positive and overlap must be smaller than
// chunkSize.
func NewFixed(chunkSize, overlap int) *Fixed {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Fixed{chunkSize: chunkSize, overlap: overlap}
}

// Split splits text into chunks. Empty or whitespace-only input yields an
// empty sequence.
func (f *Fixed) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []Chunk
	step := f.chunkSize - f.overlap

	for i := 0; i < len(words); i += step {
		end := i + f.chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, Chunk{
			Text:    strings.Join(words[i:end], " "),
			Ordinal: len(chunks),
		})

		if end == len(words) {
			break
		}
	}

	return chunks
}
