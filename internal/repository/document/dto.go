package document

import (
	"time"

	"github.com/pgvector/pgvector-go"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

type documentModel struct {
	ID        int64 `gorm:"primaryKey"`
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentModel) TableName() string { return "documents" }

type chunkModel struct {
	ID         int64 `gorm:"primaryKey"`
	DocumentID int64
	Content    string
	Embedding  *pgvector.Vector `gorm:"type:vector"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (chunkModel) TableName() string { return "document_chunks" }

func documentToModel(d *domdoc.Document) documentModel {
	return documentModel{
		ID:        d.ID(),
		Title:     d.Title(),
		Content:   d.Content(),
		CreatedAt: d.CreatedAt(),
		UpdatedAt: d.UpdatedAt(),
	}
}

func documentFromModel(m documentModel) *domdoc.Document {
	return domdoc.Reconstruct(m.ID, m.Title, m.Content, m.CreatedAt, m.UpdatedAt)
}

func chunkToModel(c *chunk.Chunk) chunkModel {
	return chunkModel{
		ID:         c.ID(),
		DocumentID: c.DocumentID(),
		Content:    c.Content(),
		Embedding:  toPGVector(c.Embedding()),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
}

func chunkFromModel(m chunkModel) chunk.Chunk {
	var emb vector.Embedding
	if m.Embedding != nil {
		emb = vector.Reconstruct(m.Embedding.Slice())
	}
	return chunk.Reconstruct(m.ID, m.DocumentID, m.Content, emb, m.CreatedAt, m.UpdatedAt)
}

// toPGVector maps a missing embedding to NULL.
func toPGVector(e vector.Embedding) *pgvector.Vector {
	if e.IsZero() {
		return nil
	}
	v := pgvector.NewVector(e.Values())
	return &v
}

func chunksFromModels(ms []chunkModel) []chunk.Chunk {
	out := make([]chunk.Chunk, len(ms))
	for i := range ms {
		out[i] = chunkFromModel(ms[i])
	}
	return out
}
