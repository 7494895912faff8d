package embedding

import (
	"context"
	"fmt"
	"math"
)

const DefaultDimensions = 384

// Provider turns text into a fixed-dimension vector.
type Provider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// NewProvider selects an embedding backend by name.
func NewProvider(name, baseURL, model string, dimensions int) (Provider, error) {
	switch name {
	case "", "hash":
		return NewHashProvider(dimensions), nil
	case "ollama":
		return NewOllamaProvider(baseURL, model, dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
}

// normalizeVector scales vec to unit length. A zero vector is returned as is.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
