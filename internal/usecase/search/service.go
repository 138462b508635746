// Package search answers semantic queries over stored chunks.
package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/metrics"
)

// Parameters echoes the effective search parameters.
type Parameters struct {
	Limit         int
	MinSimilarity float64
}

// Response is the outcome of one search.
type Response struct {
	Query        string
	Results      []result.Result
	TotalResults int
	Parameters   Parameters
}

// Service handles semantic document search.
type Service struct {
	repo      Repository
	processor QueryProcessor
	maxLimit  int
}

// New creates a search service.
func New(repo Repository, processor QueryProcessor) *Service {
	return &Service{repo: repo, processor: processor}
}

// WithMaxLimit caps the number of results a caller may request. 0 disables the cap.
func (s *Service) WithMaxLimit(n int) *Service {
	if n >= 0 {
		s.maxLimit = n
	}
	return s
}

// Search embeds text and returns the most similar chunks, best first.
// Rows the storage returns in an unusable shape are logged and skipped.
func (s *Service) Search(ctx context.Context, text string, limit int, minSimilarity float64) (Response, error) {
	q, err := query.New(text, limit, minSimilarity)
	if err != nil {
		return Response{}, err //nolint:wrapcheck // validation errors pass through as-is
	}
	if s.maxLimit > 0 && q.Limit() > s.maxLimit {
		return Response{}, domain.NewInvalidQuery(fmt.Sprintf("limit must not exceed %d", s.maxLimit))
	}

	emb, err := s.processor.ProcessQuery(ctx, q.Text())
	if err != nil {
		return Response{}, fmt.Errorf("process query: %w", err)
	}

	rows, err := s.repo.SearchSimilar(ctx, emb, q.Limit(), q.MinSimilarity())
	if err != nil {
		return Response{}, fmt.Errorf("search similar chunks: %w", err)
	}

	log := logger.FromContext(ctx)
	results := make([]result.Result, 0, len(rows))
	for _, row := range rows {
		r, err := result.FromRow(row)
		if err != nil {
			log.Warn("Skipping malformed search row", zap.Int64("chunk_id", row.ChunkID), zap.Error(err))
			continue
		}
		if r.Similarity() < q.MinSimilarity() {
			continue
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity() > results[j].Similarity()
	})
	if len(results) > q.Limit() {
		results = results[:q.Limit()]
	}
	metrics.RecordSearch(len(results))

	return Response{
		Query:        q.Text(),
		Results:      results,
		TotalResults: len(results),
		Parameters:   Parameters{Limit: q.Limit(), MinSimilarity: q.MinSimilarity()},
	}, nil
}
