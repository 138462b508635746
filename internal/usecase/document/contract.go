package document

import (
	"context"

	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

// Repository defines the storage contract for documents and their chunks.
// Save methods assign identity (id, timestamps) on the passed entity.
type Repository interface {
	SaveDocument(ctx context.Context, doc *domdoc.Document) error
	SaveChunk(ctx context.Context, c *chunk.Chunk) error
	GetDocument(ctx context.Context, id int64) (*domdoc.Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]*domdoc.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	DeleteDocument(ctx context.Context, id int64) error
	DocumentExists(ctx context.Context, id int64) (bool, error)
	ChunksByDocument(ctx context.Context, documentID int64) ([]chunk.Chunk, error)
	GetChunk(ctx context.Context, id int64) (chunk.Chunk, error)
	DeleteChunk(ctx context.Context, id int64) error
	ChunksWithoutEmbeddings(ctx context.Context, limit int) ([]chunk.Chunk, error)
	UpdateChunkEmbedding(ctx context.Context, id int64, e vector.Embedding) error
}

// Processor chunks and embeds documents.
type Processor interface {
	ProcessDocument(ctx context.Context, doc *domdoc.Document) ([]chunk.Chunk, error)
	EmbedTexts(ctx context.Context, texts []string) ([]vector.Embedding, error)
}

// Transactor runs fn inside one storage transaction carried by the context.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
