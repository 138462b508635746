// Package document orchestrates document ingestion and management.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/aggregate"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// PersistencePolicy controls what survives a failed Create.
type PersistencePolicy string

const (
	// PersistAtomic runs the whole Create in one transaction.
	PersistAtomic PersistencePolicy = "atomic"
	// PersistBestEffort keeps the document and every chunk saved before a failure.
	PersistBestEffort PersistencePolicy = "best_effort"
)

// Valid reports whether p is a known policy.
func (p PersistencePolicy) Valid() bool {
	return p == PersistAtomic || p == PersistBestEffort
}

// Details is a document with its chunks and processing status.
type Details struct {
	Document *domdoc.Document
	Chunks   []chunk.Chunk
	Status   aggregate.ProcessingStatus
}

// Page is one slice of the document list.
type Page struct {
	Documents []*domdoc.Document
	Total     int64
	Limit     int
	Offset    int
}

// Service handles document ingestion, reads and embedding backfill.
type Service struct {
	repo            Repository
	processor       Processor
	tx              Transactor
	policy          PersistencePolicy
	defaultPageSize int
	maxPageSize     int
	backfillLimit   int
}

// New creates a document service. tx may be nil, in which case Create is never transactional.
func New(repo Repository, processor Processor, tx Transactor) *Service {
	return &Service{
		repo:            repo,
		processor:       processor,
		tx:              tx,
		policy:          PersistAtomic,
		defaultPageSize: 20,
		maxPageSize:     100,
		backfillLimit:   100,
	}
}

// WithPersistence sets the chunk persistence policy. Unknown values are ignored.
func (s *Service) WithPersistence(p PersistencePolicy) *Service {
	if p.Valid() {
		s.policy = p
	}
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// WithBackfillLimit sets the default batch size of EmbedPending.
func (s *Service) WithBackfillLimit(n int) *Service {
	if n > 0 {
		s.backfillLimit = n
	}
	return s
}

// Policy returns the active persistence policy.
func (s *Service) Policy() PersistencePolicy { return s.policy }

// Create stores a document, chunks and embeds it, then stores the chunks.
func (s *Service) Create(ctx context.Context, title, content string) (Details, error) {
	doc, err := domdoc.New(title, content)
	if err != nil {
		return Details{}, err //nolint:wrapcheck // validation errors pass through as-is
	}

	var out Details
	run := func(ctx context.Context) error {
		d, err := s.create(ctx, doc)
		out = d
		return err
	}

	if s.policy == PersistAtomic && s.tx != nil {
		err = s.tx.Transaction(ctx, run)
	} else {
		err = run(ctx)
	}
	metrics.RecordIngestion(len(out.Chunks), err)
	if err != nil {
		return Details{}, err //nolint:wrapcheck // already wrapped by create
	}

	logger.FromContext(ctx).Info("Document created",
		zap.Int64("document_id", out.Document.ID()),
		zap.Int("chunks", len(out.Chunks)),
		zap.String("persistence", string(s.policy)),
	)
	return out, nil
}

func (s *Service) create(ctx context.Context, doc *domdoc.Document) (Details, error) {
	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		return Details{}, fmt.Errorf("%w: %w", domain.ErrDocumentSave, err)
	}

	agg, err := aggregate.New(doc)
	if err != nil {
		return Details{}, fmt.Errorf("build aggregate: %w", err)
	}

	chunks, err := s.processor.ProcessDocument(ctx, doc)
	if err != nil {
		return Details{}, fmt.Errorf("process document %d: %w", doc.ID(), err)
	}

	saved := make([]chunk.Chunk, 0, len(chunks))
	for i := range chunks {
		c := chunks[i]
		c.SetDocumentID(doc.ID())
		if err := s.repo.SaveChunk(ctx, &c); err != nil {
			return Details{}, fmt.Errorf("chunk %d of %d: %w: %w", i+1, len(chunks), domain.ErrChunkSave, err)
		}
		saved = append(saved, c)
	}

	if err := agg.AddChunks(saved); err != nil {
		return Details{}, fmt.Errorf("attach chunks: %w", err)
	}

	return Details{
		Document: doc,
		Chunks:   agg.Chunks(),
		Status:   agg.ProcessingStatus(),
	}, nil
}

// Get returns a document with its chunks and status.
func (s *Service) Get(ctx context.Context, id int64) (Details, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return Details{}, fmt.Errorf("get document: %w", err)
	}
	chunks, err := s.repo.ChunksByDocument(ctx, id)
	if err != nil {
		return Details{}, fmt.Errorf("get chunks: %w", err)
	}

	agg, err := aggregate.New(doc)
	if err != nil {
		return Details{}, fmt.Errorf("build aggregate: %w", err)
	}
	if err := agg.AddChunks(chunks); err != nil {
		return Details{}, fmt.Errorf("attach chunks: %w", err)
	}
	return Details{Document: doc, Chunks: agg.Chunks(), Status: agg.ProcessingStatus()}, nil
}

// List returns a page of documents, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := s.repo.ListDocuments(ctx, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list documents: %w", err)
	}
	total, err := s.repo.CountDocuments(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("count documents: %w", err)
	}
	return Page{Documents: docs, Total: total, Limit: limit, Offset: offset}, nil
}

// Delete removes a document and its chunks.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Exists reports whether a document is stored.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.DocumentExists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}
	return ok, nil
}

// Chunks lists the chunks of a document in creation order.
func (s *Service) Chunks(ctx context.Context, documentID int64) ([]chunk.Chunk, error) {
	ok, err := s.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("document %d: %w", documentID, domain.ErrDocumentNotFound)
	}

	chunks, err := s.repo.ChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	return chunks, nil
}

// GetChunk returns one chunk.
func (s *Service) GetChunk(ctx context.Context, id int64) (chunk.Chunk, error) {
	c, err := s.repo.GetChunk(ctx, id)
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("get chunk: %w", err)
	}
	return c, nil
}

// DeleteChunk removes one chunk.
func (s *Service) DeleteChunk(ctx context.Context, id int64) error {
	if err := s.repo.DeleteChunk(ctx, id); err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	return nil
}

// EmbedPending embeds up to limit stored chunks that have no vector, oldest first,
// and returns how many were updated. limit <= 0 uses the configured default.
func (s *Service) EmbedPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.backfillLimit
	}

	pending, err := s.repo.ChunksWithoutEmbeddings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load pending chunks: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i := range pending {
		texts[i] = pending[i].Content()
	}
	embeddings, err := s.processor.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed pending chunks: %w", err)
	}

	updated := 0
	for i := range pending {
		if err := s.repo.UpdateChunkEmbedding(ctx, pending[i].ID(), embeddings[i]); err != nil {
			metrics.ChunksCreatedTotal.Add(float64(updated))
			return updated, fmt.Errorf("chunk %d: %w: %w", pending[i].ID(), domain.ErrChunkSave, err)
		}
		updated++
	}
	metrics.ChunksCreatedTotal.Add(float64(updated))

	logger.FromContext(ctx).Info("Pending chunks embedded", zap.Int("updated", updated))
	return updated, nil
}
