package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashProvider is a deterministic feature-hashing bag-of-words embedder.
// It needs no network and is meant for local runs and tests.
type HashProvider struct {
	dims int
}

func NewHashProvider(dims int) *HashProvider {
	if dims <= 0 {
		dims = 384
	}
	return &HashProvider{dims: dims}
}

func (p *HashProvider) Model() string { return "hash-bow" }

func (p *HashProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.vector(in)
	}
	return out, nil
}

func (p *HashProvider) vector(text string) []float32 {
	vec := make([]float32, p.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dims))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
