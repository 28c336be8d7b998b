package model

import (
	"context"
	"math"
)

// EmbedderInterface turns text into fixed-dimension vectors. Documents and
// queries use different task types on the provider side, hence the split.
type EmbedderInterface interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel produces a completion for one system + user turn pair.
type ChatModel interface {
	Generate(ctx context.Context, system, prompt string, temperature float64) (string, error)
}

// normalize64 scales a vector to unit length so cosine distance in the index
// behaves across providers
func normalize64(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}

	for i, x := range vec {
		vec[i] = x / norm
	}
	return vec
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
