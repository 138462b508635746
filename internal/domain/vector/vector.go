// Package vector holds the Embedding value object.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Embedding is an immutable, non-empty vector of finite components.
type Embedding struct {
	values []float32
}

// New validates and copies values.
func New(values []float32) (Embedding, error) {
	if len(values) == 0 {
		return Embedding{}, domain.ErrEmbeddingEmpty
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Embedding{}, fmt.Errorf("embedding component %d is not a finite number: %w", i, domain.ErrValidation)
		}
	}
	return Embedding{values: clone(values)}, nil
}

// Reconstruct wraps stored values without validation (storage hydration).
func Reconstruct(values []float32) Embedding {
	return Embedding{values: values}
}

// Values returns a copy of the components.
func (e Embedding) Values() []float32 { return clone(e.values) }

// Dim returns the number of dimensions; 0 for the zero value.
func (e Embedding) Dim() int { return len(e.values) }

// IsZero reports whether the embedding carries no components.
func (e Embedding) IsZero() bool { return len(e.values) == 0 }

// CosineSimilarity returns dot(a,b)/(|a|*|b|), or exactly 0 when either magnitude is 0.
func (e Embedding) CosineSimilarity(other Embedding) (float64, error) {
	if len(e.values) != len(other.values) {
		return 0, fmt.Errorf("cosine similarity %d vs %d: %w",
			len(e.values), len(other.values), domain.ErrVectorDimMismatch)
	}

	var dot, normA, normB float64
	for i := range e.values {
		a, b := float64(e.values[i]), float64(other.values[i])
		dot += a * b
		normA += a * a
		normB += b * b
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
