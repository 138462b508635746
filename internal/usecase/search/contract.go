package search

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

// Repository runs nearest-neighbour queries over stored chunk embeddings.
type Repository interface {
	SearchSimilar(ctx context.Context, q vector.Embedding, limit int, minSimilarity float64) ([]result.Row, error)
}

// QueryProcessor embeds search text.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, text string) (vector.Embedding, error)
}
