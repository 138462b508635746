// Package document persists documents and chunks in Postgres.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

// conn is the consumer interface for the database (ISP).
// Implemented by postgres.Store; returns the transaction bound to ctx if any.
type conn interface {
	Conn(ctx context.Context) *gorm.DB
}

// Repo implements usecase/document.Repository.
type Repo struct {
	db conn
}

// New creates a document repository.
func New(c conn) *Repo {
	return &Repo{db: c}
}

// SaveDocument inserts doc and assigns its id and timestamps.
func (r *Repo) SaveDocument(ctx context.Context, doc *domdoc.Document) error {
	m := documentToModel(doc)
	if err := r.db.Conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	doc.SetIdentity(m.ID, m.CreatedAt, m.UpdatedAt)
	return nil
}

// SaveChunk inserts c and assigns its id and timestamps.
func (r *Repo) SaveChunk(ctx context.Context, c *chunk.Chunk) error {
	m := chunkToModel(c)
	if err := r.db.Conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	c.SetIdentity(m.ID, m.CreatedAt, m.UpdatedAt)
	return nil
}

// GetDocument returns a document without its chunks.
func (r *Repo) GetDocument(ctx context.Context, id int64) (*domdoc.Document, error) {
	var m documentModel
	if err := r.db.Conn(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("select document %d: %w", id, err)
	}
	return documentFromModel(m), nil
}

// ListDocuments returns documents newest first.
func (r *Repo) ListDocuments(ctx context.Context, limit, offset int) ([]*domdoc.Document, error) {
	var ms []documentModel
	err := r.db.Conn(ctx).Order("id DESC").Limit(limit).Offset(offset).Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]*domdoc.Document, len(ms))
	for i := range ms {
		out[i] = documentFromModel(ms[i])
	}
	return out, nil
}

// CountDocuments returns the number of stored documents.
func (r *Repo) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Conn(ctx).Model(&documentModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// DeleteDocument removes a document; its chunks go with it (ON DELETE CASCADE).
func (r *Repo) DeleteDocument(ctx context.Context, id int64) error {
	res := r.db.Conn(ctx).Delete(&documentModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete document %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %d: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}

// DocumentExists reports whether id is stored.
func (r *Repo) DocumentExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.Conn(ctx).Model(&documentModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("document exists %d: %w", id, err)
	}
	return n > 0, nil
}

// ChunksByDocument returns a document's chunks in insertion order.
func (r *Repo) ChunksByDocument(ctx context.Context, documentID int64) ([]chunk.Chunk, error) {
	var ms []chunkModel
	err := r.db.Conn(ctx).Where("document_id = ?", documentID).Order("id").Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("select chunks of %d: %w", documentID, err)
	}
	return chunksFromModels(ms), nil
}

// GetChunk returns one chunk.
func (r *Repo) GetChunk(ctx context.Context, id int64) (chunk.Chunk, error) {
	var m chunkModel
	if err := r.db.Conn(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chunk.Chunk{}, fmt.Errorf("chunk %d: %w", id, domain.ErrChunkNotFound)
		}
		return chunk.Chunk{}, fmt.Errorf("select chunk %d: %w", id, err)
	}
	return chunkFromModel(m), nil
}

// DeleteChunk removes one chunk.
func (r *Repo) DeleteChunk(ctx context.Context, id int64) error {
	res := r.db.Conn(ctx).Delete(&chunkModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete chunk %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("chunk %d: %w", id, domain.ErrChunkNotFound)
	}
	return nil
}

// ChunksWithoutEmbeddings returns up to limit chunks with a NULL embedding, oldest first.
func (r *Repo) ChunksWithoutEmbeddings(ctx context.Context, limit int) ([]chunk.Chunk, error) {
	var ms []chunkModel
	err := r.db.Conn(ctx).
		Where("embedding IS NULL").
		Order("created_at, id").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("select pending chunks: %w", err)
	}
	return chunksFromModels(ms), nil
}

// UpdateChunkEmbedding stores e on chunk id.
func (r *Repo) UpdateChunkEmbedding(ctx context.Context, id int64, e vector.Embedding) error {
	if e.IsZero() {
		return fmt.Errorf("chunk %d: %w", id, domain.ErrEmbeddingEmpty)
	}
	res := r.db.Conn(ctx).Model(&chunkModel{}).Where("id = ?", id).Updates(map[string]any{
		"embedding":  pgvector.NewVector(e.Values()),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update chunk %d embedding: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("chunk %d: %w", id, domain.ErrChunkNotFound)
	}
	return nil
}
