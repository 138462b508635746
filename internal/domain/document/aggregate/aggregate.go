// Package aggregate groups a persisted document with its in-memory chunks.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

// ProcessingStatus summarises how far a document's chunks have been processed.
type ProcessingStatus struct {
	TotalChunks             int
	ChunksWithEmbeddings    int
	ChunksWithoutEmbeddings int
	IsFullyProcessed        bool
	TotalWords              int
}

// ScoredChunk is a chunk paired with its similarity to a query.
type ScoredChunk struct {
	Chunk      chunk.Chunk
	Similarity float64
}

// Aggregate is the consistency boundary for one document and its chunks.
// It is never persisted; all derived values are recomputed from the chunk list.
type Aggregate struct {
	doc *document.Document
}

// New wraps a persisted document.
func New(doc *document.Document) (*Aggregate, error) {
	if doc == nil || !doc.IsPersisted() {
		return nil, fmt.Errorf("aggregate requires a persisted document: %w", domain.ErrValidation)
	}
	return &Aggregate{doc: doc}, nil
}

// Document returns the root entity.
func (a *Aggregate) Document() *document.Document { return a.doc }

// Chunks returns the current chunk list.
func (a *Aggregate) Chunks() []chunk.Chunk { return a.doc.Chunks() }

// AddChunk attaches one chunk, enforcing ownership.
func (a *Aggregate) AddChunk(c chunk.Chunk) error {
	if err := a.doc.AddChunk(c); err != nil {
		return fmt.Errorf("add chunk: %w", err)
	}
	return nil
}

// AddChunks attaches chunks in order and stops at the first foreign one.
func (a *Aggregate) AddChunks(cs []chunk.Chunk) error {
	for i := range cs {
		if err := a.AddChunk(cs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ChunksWithEmbeddings returns chunks that carry a vector.
func (a *Aggregate) ChunksWithEmbeddings() []chunk.Chunk {
	return a.partition(true)
}

// ChunksWithoutEmbeddings returns chunks still waiting for a vector.
func (a *Aggregate) ChunksWithoutEmbeddings() []chunk.Chunk {
	return a.partition(false)
}

func (a *Aggregate) partition(withEmbedding bool) []chunk.Chunk {
	var out []chunk.Chunk
	for _, c := range a.doc.Chunks() {
		if c.HasEmbedding() == withEmbedding {
			out = append(out, c)
		}
	}
	return out
}

// ProcessingStatus computes the status from the current chunk list.
func (a *Aggregate) ProcessingStatus() ProcessingStatus {
	chunks := a.doc.Chunks()
	st := ProcessingStatus{TotalChunks: len(chunks)}
	for i := range chunks {
		if chunks[i].HasEmbedding() {
			st.ChunksWithEmbeddings++
		}
		st.TotalWords += chunks[i].WordCount()
	}
	st.ChunksWithoutEmbeddings = st.TotalChunks - st.ChunksWithEmbeddings
	st.IsFullyProcessed = st.TotalChunks > 0 && st.ChunksWithEmbeddings == st.TotalChunks
	return st
}

// SearchSimilarChunks ranks embedded chunks by similarity to q, keeping those >= minSimilarity.
// Ties keep insertion order.
func (a *Aggregate) SearchSimilarChunks(q vector.Embedding, minSimilarity float64) ([]ScoredChunk, error) {
	var scored []ScoredChunk
	for _, c := range a.ChunksWithEmbeddings() {
		sim, err := c.SimilarityTo(q)
		if err != nil {
			return nil, fmt.Errorf("score chunk: %w", err)
		}
		if sim >= minSimilarity {
			scored = append(scored, ScoredChunk{Chunk: c, Similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	return scored, nil
}

// ValidateIntegrity reports whether every chunk is owned and the document has content.
func (a *Aggregate) ValidateIntegrity() bool {
	if a.doc.IsEmpty() {
		return false
	}
	for _, c := range a.doc.Chunks() {
		if c.DocumentID() != a.doc.ID() {
			return false
		}
	}
	return true
}
