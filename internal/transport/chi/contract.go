package chi

import (
	"context"

	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
)

// DocumentService is the document use case as seen by the HTTP layer.
type DocumentService interface {
	Create(ctx context.Context, title, content string) (documentuc.Details, error)
	Get(ctx context.Context, id int64) (documentuc.Details, error)
	List(ctx context.Context, limit, offset int) (documentuc.Page, error)
	Delete(ctx context.Context, id int64) error
	Chunks(ctx context.Context, documentID int64) ([]chunk.Chunk, error)
	GetChunk(ctx context.Context, id int64) (chunk.Chunk, error)
	DeleteChunk(ctx context.Context, id int64) error
	EmbedPending(ctx context.Context, limit int) (int, error)
}

// SearchService runs semantic queries.
type SearchService interface {
	Search(ctx context.Context, text string, limit int, minSimilarity float64) (searchuc.Response, error)
}

// HealthService aggregates dependency checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
