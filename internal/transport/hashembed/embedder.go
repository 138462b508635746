// Package hashembed is a deterministic offline embedding provider for tests and local runs.
package hashembed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Metric labels for this provider.
const (
	ProviderName = "mock"
	ModelName    = "hash"
)

// Embedder derives a unit vector from the sha256 of the text. Equal texts get equal vectors.
type Embedder struct {
	dimensions int
}

// New creates a hash embedder producing vectors of the given dimension.
func New(dimensions int) (*Embedder, error) {
	if dimensions <= 0 {
		return nil, errors.New("hashembed: dimensions must be positive")
	}
	return &Embedder{dimensions: dimensions}, nil
}

// Embed implements domain.Embedder. Tokens are counted as whitespace-separated words.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		recordFailure()
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // cancellation passes through
	}
	tokens := len(strings.Fields(text))
	record(start, tokens)
	return domain.EmbeddingResult{
		Embedding:    e.vector(text),
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder as a single request.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	start := time.Now()
	if err := ctx.Err(); err != nil {
		recordFailure()
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // cancellation passes through
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		out.Embeddings[i] = e.vector(text)
		out.TotalTokens += len(strings.Fields(text))
	}
	out.PromptTokens = out.TotalTokens
	record(start, out.TotalTokens)
	return out, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewPCG( //nolint:gosec // deterministic, not for security
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	))

	raw := make([]float64, e.dimensions)
	var norm float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		norm += raw[i] * raw[i]
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dimensions)
	for i, v := range raw {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out
}

func record(start time.Time, tokens int) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, ModelName, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(ProviderName, ModelName).Observe(time.Since(start).Seconds())
	metrics.EmbeddingTokensTotal.WithLabelValues(ProviderName, ModelName, "prompt").Add(float64(tokens))
	metrics.EmbeddingTokensTotal.WithLabelValues(ProviderName, ModelName, "total").Add(float64(tokens))
}

func recordFailure() {
	metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, ModelName, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, ModelName, "canceled").Inc()
}
