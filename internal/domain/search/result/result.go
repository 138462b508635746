package result

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is a nearest-neighbour hit as returned by storage.
type Row struct {
	ChunkID       int64
	DocumentID    int64
	Content       string
	DocumentTitle string
	Similarity    float64
}

// Result is a single ranked search hit.
type Result struct {
	chunkID       int64
	documentID    int64
	documentTitle string
	content       string
	similarity    float64
}

var (
	errMissingChunkID = errors.New("row has no chunk id")
	errMissingContent = errors.New("row has no content")
	errBadSimilarity  = errors.New("row similarity is not a finite number")
)

// FromRow validates a storage row. Rows that fail are dropped by the caller.
func FromRow(r Row) (Result, error) {
	if r.ChunkID <= 0 {
		return Result{}, errMissingChunkID
	}
	if strings.TrimSpace(r.Content) == "" {
		return Result{}, fmt.Errorf("chunk %d: %w", r.ChunkID, errMissingContent)
	}
	if math.IsNaN(r.Similarity) || math.IsInf(r.Similarity, 0) {
		return Result{}, fmt.Errorf("chunk %d: %w", r.ChunkID, errBadSimilarity)
	}
	return Result{
		chunkID:       r.ChunkID,
		documentID:    r.DocumentID,
		documentTitle: r.DocumentTitle,
		content:       r.Content,
		similarity:    r.Similarity,
	}, nil
}

// ChunkID returns the matched chunk id.
func (r *Result) ChunkID() int64 { return r.chunkID }

// DocumentID returns the owning document id.
func (r *Result) DocumentID() int64 { return r.documentID }

// DocumentTitle returns the owning document title.
func (r *Result) DocumentTitle() string { return r.documentTitle }

// Content returns the chunk text.
func (r *Result) Content() string { return r.content }

// Similarity returns the raw similarity score.
func (r *Result) Similarity() float64 { return r.similarity }

// SimilarityPercent returns the score as a human-readable percentage, e.g. "95.0%".
func (r *Result) SimilarityPercent() string { return FormatPercent(r.similarity) }

// FormatPercent renders s*100 rounded to two decimals with at least one decimal digit.
func FormatPercent(s float64) string {
	p := math.Round(s*10000) / 100
	out := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out + "%"
}
