package postgres

import (
	"context"
	"errors"
	"fmt"
)

// Schema sizes the embedding column and its HNSW index.
type Schema struct {
	Dimensions     int
	M              int
	EfConstruction int
}

// Migrate creates the pgvector extension, both tables and their indexes. It is idempotent.
// Changing Dimensions on an existing database requires dropping document_chunks first.
func (s *Store) Migrate(ctx context.Context, schema Schema) error {
	if schema.Dimensions <= 0 {
		return errors.New("migrate: dimensions must be positive")
	}
	if schema.M <= 0 {
		schema.M = 16
	}
	if schema.EfConstruction <= 0 {
		schema.EfConstruction = 200
	}

	for i, stmt := range migrationStatements(schema) {
		if err := s.Conn(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

// maxIndexedDimensions is the pgvector limit for HNSW on the vector type.
const maxIndexedDimensions = 2000

func migrationStatements(s Schema) []string {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			id         BIGSERIAL PRIMARY KEY,
			title      VARCHAR(255) NOT NULL,
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id          BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			content     TEXT NOT NULL,
			embedding   vector(%d),
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.Dimensions),
		`CREATE INDEX IF NOT EXISTS document_chunks_document_id_idx ON document_chunks (document_id)`,
		`CREATE INDEX IF NOT EXISTS document_chunks_pending_idx ON document_chunks (created_at) WHERE embedding IS NULL`,
	}
	if s.Dimensions > maxIndexedDimensions {
		// Exact scan only.
		return stmts
	}
	return append(stmts, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS document_chunks_embedding_idx ON document_chunks
			USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)`,
		s.M, s.EfConstruction))
}
