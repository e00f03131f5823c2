package embedder

import (
	"context"
	"hash/fnv"
	"math"
)

// Hash is a deterministic stand-in embedder: it derives a pseudo-random but
// reproducible unit vector from a hash of the input text. It carries no
// semantic signal and exists so the ingestion and search pipeline can be
// exercised end-to-end before a real embedding backend is configured.
type Hash struct {
	dims int
}

// NewHash creates a hash embedder producing vectors of the given dimension.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = 768
	}
	return &Hash{dims: dims}
}

// Embed derives one vector per text.
func (h *Hash) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

// EmbedOne derives a vector for a single text.
func (h *Hash) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := h.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Dimensions returns the configured vector dimension.
func (h *Hash) Dimensions() int { return h.dims }

// Name identifies the embedder.
func (h *Hash) Name() string { return "hash" }

func (h *Hash) vector(text string) []float32 {
	hs := fnv.New64a()
	hs.Write([]byte(text))
	state := hs.Sum64()

	v := make([]float32, h.dims)
	var norm float64
	for i := range v {
		state = splitmix64(state)
		// Map to [-1, 1).
		v[i] = float32(int64(state)) / float32(math.MaxInt64)
		norm += float64(v[i]) * float64(v[i])
	}

	// Normalize so distances are comparable across texts.
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

// splitmix64 advances a 64-bit PRNG state.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
