// Package embed provides text embedding backends for semantic market
// matching, plus the vector math used to compare them.
package embed

import (
	"context"
	"math"
)

// Embedder turns a batch of texts into dense vectors, one per input.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// or zero-magnitude inputs yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
