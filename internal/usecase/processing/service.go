// Package processing turns documents into embedded chunks and queries into vectors.
package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// MinContentLength is the trimmed length a document must exceed to be processed.
const MinContentLength = 10

// Service validates, chunks and embeds.
type Service struct {
	splitter      Splitter
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
}

// New creates a processing service. Documents and queries may use differently
// prefixed embedders over the same model.
func New(splitter Splitter, docEmbedder, queryEmbedder domain.Embedder) *Service {
	return &Service{
		splitter:      splitter,
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
	}
}

// ValidateDocumentForProcessing reports whether doc has enough text to be chunked.
func (s *Service) ValidateDocumentForProcessing(doc *document.Document) bool {
	if doc.IsEmpty() || doc.WordCount() == 0 {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(doc.Content())) > MinContentLength
}

// ProcessDocument splits doc and embeds every chunk. The returned chunks are bound to doc.ID()
// and carry embeddings; nothing is persisted here. Unusable collaborator output (a count
// mismatch, a blank chunk, an empty or non-finite vector) is ErrDocumentProcessing.
func (s *Service) ProcessDocument(ctx context.Context, doc *document.Document) ([]chunk.Chunk, error) {
	if doc.IsEmpty() {
		return nil, fmt.Errorf("document %d is empty: %w", doc.ID(), domain.ErrDocumentProcessing)
	}
	if !s.ValidateDocumentForProcessing(doc) {
		return nil, fmt.Errorf("document %d: %w", doc.ID(), domain.ErrDocumentTooShort)
	}

	texts, err := s.splitter.Split(doc.Content())
	if err != nil {
		return nil, normalize(err, domain.ErrDocumentProcessing, "split document")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("splitter produced no chunks: %w", domain.ErrDocumentProcessing)
	}

	embeddings, err := s.embed(ctx, texts)
	if err != nil {
		return nil, normalize(err, domain.ErrDocumentProcessing, "embed chunks")
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d chunks: %w",
			len(embeddings), len(texts), domain.ErrDocumentProcessing)
	}

	chunks := make([]chunk.Chunk, len(texts))
	for i, text := range texts {
		emb, err := vector.New(embeddings[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %d embedding: %w: %v", i, domain.ErrDocumentProcessing, err) //nolint:errorlint // re-filed, not a client error
		}
		c, err := chunk.New(doc.ID(), text)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w: %v", i, domain.ErrDocumentProcessing, err) //nolint:errorlint // re-filed, not a client error
		}
		c.SetEmbedding(emb)
		chunks[i] = c
	}

	logger.FromContext(ctx).Debug("Document processed",
		zap.Int64("document_id", doc.ID()),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

// ProcessQuery embeds a search query.
func (s *Service) ProcessQuery(ctx context.Context, text string) (vector.Embedding, error) {
	res, err := s.queryEmbedder.Embed(ctx, text)
	if err != nil {
		return vector.Embedding{}, normalize(err, domain.ErrEmbeddingGeneration, "embed query")
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	if len(res.Embedding) == 0 {
		return vector.Embedding{}, fmt.Errorf("empty query embedding: %w", domain.ErrEmbeddingGeneration)
	}
	emb, err := vector.New(res.Embedding)
	if err != nil {
		return vector.Embedding{}, fmt.Errorf("query embedding: %w: %v", domain.ErrEmbeddingGeneration, err) //nolint:errorlint // re-filed, not a client error
	}
	return emb, nil
}

// EmbedTexts embeds arbitrary chunk texts with the document embedder, in order.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([]vector.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := s.embed(ctx, texts)
	if err != nil {
		return nil, normalize(err, domain.ErrEmbeddingGeneration, "embed texts")
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts: %w",
			len(raw), len(texts), domain.ErrEmbeddingGeneration)
	}

	out := make([]vector.Embedding, len(raw))
	for i := range raw {
		e, err := vector.New(raw[i])
		if err != nil {
			return nil, fmt.Errorf("text %d embedding: %w: %v", i, domain.ErrEmbeddingGeneration, err) //nolint:errorlint // re-filed, not a client error
		}
		out[i] = e
	}
	return out, nil
}

func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := domain.EmbedBatch(ctx, s.docEmbedder, texts)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by the caller
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return res.Embeddings, nil
}

// normalize keeps processing and generation errors intact and files everything else under kind.
// Other domain categories describe client input, so only their text survives.
func normalize(err, kind error, op string) error {
	switch {
	case errors.Is(err, domain.ErrUnprocessable):
		return fmt.Errorf("%s: %w", op, err)
	case domain.IsDomain(err):
		return fmt.Errorf("%s: %w: %v", op, kind, err) //nolint:errorlint // re-filed, not a client error
	default:
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
}
