package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// HashProvider derives deterministic pseudo-embeddings from an FNV hash of
// the text. Identical texts map to identical vectors; it needs no model.
type HashProvider struct {
	dimensions int
}

func NewHashProvider(dimensions int) *HashProvider {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashProvider{dimensions: dimensions}
}

func (p *HashProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dimensions)
	for i := range vec {
		// LCG step, mapped into [-1, 1]
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalizeVector(vec), nil
}

func (p *HashProvider) Dimensions() int {
	return p.dimensions
}
