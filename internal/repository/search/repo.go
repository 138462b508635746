// Package search runs cosine nearest-neighbour queries over chunk embeddings with pgvector.
package search

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

// similarSQL ranks by cosine distance so the HNSW index serves the ORDER BY.
const similarSQL = `SELECT c.id AS chunk_id, c.document_id, c.content, d.title AS document_title,
	1 - (c.embedding <=> @q) AS similarity
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.embedding IS NOT NULL
	AND 1 - (c.embedding <=> @q) >= @min
ORDER BY c.embedding <=> @q
LIMIT @limit`

type conn interface {
	Conn(ctx context.Context) *gorm.DB
}

type row struct {
	ChunkID       int64   `gorm:"column:chunk_id"`
	DocumentID    int64   `gorm:"column:document_id"`
	Content       string  `gorm:"column:content"`
	DocumentTitle string  `gorm:"column:document_title"`
	Similarity    float64 `gorm:"column:similarity"`
}

// Repo implements usecase/search.Repository.
type Repo struct {
	db       conn
	efSearch int
}

// Option configures the repository.
type Option func(*Repo)

// WithEfSearch sets hnsw.ef_search for each query. Zero keeps the server default.
func WithEfSearch(n int) Option {
	return func(r *Repo) { r.efSearch = n }
}

// New creates a search repository.
func New(c conn, opts ...Option) *Repo {
	r := &Repo{db: c}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SearchSimilar returns up to limit chunks with cosine similarity >= minSimilarity, best first.
func (r *Repo) SearchSimilar(
	ctx context.Context, q vector.Embedding, limit int, minSimilarity float64,
) ([]result.Row, error) {
	args := map[string]any{
		"q":     pgvector.NewVector(q.Values()),
		"min":   minSimilarity,
		"limit": limit,
	}

	var rows []row
	query := func(db *gorm.DB) error {
		if r.efSearch > 0 {
			// SET does not take bind parameters.
			if err := db.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", r.efSearch)).Error; err != nil {
				return fmt.Errorf("set ef_search: %w", err)
			}
		}
		return db.Raw(similarSQL, args).Scan(&rows).Error
	}

	var err error
	if r.efSearch > 0 {
		err = r.db.Conn(ctx).Transaction(query)
	} else {
		err = query(r.db.Conn(ctx))
	}
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	out := make([]result.Row, len(rows))
	for i, rw := range rows {
		out[i] = result.Row{
			ChunkID:       rw.ChunkID,
			DocumentID:    rw.DocumentID,
			Content:       rw.Content,
			DocumentTitle: rw.DocumentTitle,
			Similarity:    rw.Similarity,
		}
	}
	return out, nil
}
