// Package chunk holds the DocumentChunk entity.
package chunk

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

// Chunk is a contiguous piece of a document's content, the unit of embedding and retrieval.
type Chunk struct {
	id         int64
	documentID int64
	content    string
	embedding  vector.Embedding
	createdAt  time.Time
	updatedAt  time.Time
}

// New validates content and creates an unsaved chunk owned by documentID.
func New(documentID int64, content string) (Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return Chunk{}, domain.ErrChunkContentEmpty
	}
	return Chunk{documentID: documentID, content: content}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(
	id, documentID int64, content string, embedding vector.Embedding, createdAt, updatedAt time.Time,
) Chunk {
	return Chunk{
		id: id, documentID: documentID, content: content, embedding: embedding,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the storage id, 0 until persisted.
func (c *Chunk) ID() int64 { return c.id }

// DocumentID returns the owning document id.
func (c *Chunk) DocumentID() int64 { return c.documentID }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Embedding returns the attached vector; zero value when absent.
func (c *Chunk) Embedding() vector.Embedding { return c.embedding }

// CreatedAt returns the storage creation time.
func (c *Chunk) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the storage update time.
func (c *Chunk) UpdatedAt() time.Time { return c.updatedAt }

// HasEmbedding reports whether a non-empty embedding is attached.
func (c *Chunk) HasEmbedding() bool { return !c.embedding.IsZero() }

// WordCount counts whitespace-delimited tokens.
func (c *Chunk) WordCount() int { return len(strings.Fields(c.content)) }

// SetEmbedding attaches a vector.
func (c *Chunk) SetEmbedding(e vector.Embedding) { c.embedding = e }

// SetDocumentID rebinds the chunk to its persisted document.
func (c *Chunk) SetDocumentID(id int64) { c.documentID = id }

// SetIdentity records the id and timestamps assigned by storage.
func (c *Chunk) SetIdentity(id int64, createdAt, updatedAt time.Time) {
	c.id = id
	c.createdAt = createdAt
	c.updatedAt = updatedAt
}

// SimilarityTo returns the cosine similarity between the chunk's embedding and q.
func (c *Chunk) SimilarityTo(q vector.Embedding) (float64, error) {
	if !c.HasEmbedding() {
		return 0, fmt.Errorf("chunk %d: %w", c.id, domain.ErrChunkWithoutEmbedding)
	}
	sim, err := c.embedding.CosineSimilarity(q)
	if err != nil {
		return 0, fmt.Errorf("chunk %d: %w", c.id, err)
	}
	return sim, nil
}
