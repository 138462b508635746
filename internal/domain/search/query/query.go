// Package query holds the SearchQuery value object.
package query

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Search parameter defaults and limits.
const (
	DefaultLimit         = 5
	DefaultMinSimilarity = 0.0
	// MaxQueryLength is the maximum query length in characters.
	MaxQueryLength = 4096
)

// Query is a validated semantic search request.
type Query struct {
	text          string
	limit         int
	minSimilarity float64
}

// New validates text, limit and minSimilarity. No embedding work happens before this succeeds.
func New(text string, limit int, minSimilarity float64) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, domain.ErrSearchQueryEmpty
	}
	if n := utf8.RuneCountInString(text); n > MaxQueryLength {
		return Query{}, domain.NewInvalidQuery(fmt.Sprintf("query too long (max %d characters)", MaxQueryLength))
	}
	if limit <= 0 {
		return Query{}, domain.NewInvalidQuery("limit must be greater than 0")
	}
	if math.IsNaN(minSimilarity) || minSimilarity < 0 || minSimilarity > 1 {
		return Query{}, domain.NewInvalidQuery("minimum similarity must be between 0 and 1")
	}
	return Query{text: text, limit: limit, minSimilarity: minSimilarity}, nil
}

// Text returns the raw query text.
func (q Query) Text() string { return q.text }

// Limit returns the maximum number of results.
func (q Query) Limit() int { return q.limit }

// MinSimilarity returns the inclusive similarity floor.
func (q Query) MinSimilarity() float64 { return q.minSimilarity }
