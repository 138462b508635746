package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/vector"
)

func persistedDoc(t *testing.T, id int64) *document.Document {
	t.Helper()
	return document.Reconstruct(id, "Doc", "hello world this is a test", time.Now(), time.Now())
}

func makeChunk(t *testing.T, docID int64, content string, emb ...float32) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(docID, content)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	if len(emb) > 0 {
		e, err := vector.New(emb)
		if err != nil {
			t.Fatalf("vector.New: %v", err)
		}
		c.SetEmbedding(e)
	}
	return c
}

func mustAggregate(t *testing.T, id int64) *Aggregate {
	t.Helper()
	a, err := New(persistedDoc(t, id))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_RequiresPersistedDocument(t *testing.T) {
	doc, _ := document.New("t", "content")
	if _, err := New(doc); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestAddChunks_RejectsForeign(t *testing.T) {
	a := mustAggregate(t, 1)
	err := a.AddChunks([]chunk.Chunk{
		makeChunk(t, 1, "ok"),
		makeChunk(t, 2, "foreign"),
		makeChunk(t, 1, "never added"),
	})
	if !errors.Is(err, domain.ErrChunkNotBelongs) {
		t.Fatalf("expected ErrChunkNotBelongs, got %v", err)
	}
	if len(a.Chunks()) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(a.Chunks()))
	}
	if !a.ValidateIntegrity() {
		t.Error("integrity must hold after a rejected add")
	}
}

func TestProcessingStatus_Empty(t *testing.T) {
	st := mustAggregate(t, 1).ProcessingStatus()
	if st.TotalChunks != 0 || st.IsFullyProcessed {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestProcessingStatus_Partial(t *testing.T) {
	a := mustAggregate(t, 1)
	_ = a.AddChunks([]chunk.Chunk{
		makeChunk(t, 1, "hello world", 1, 0),
		makeChunk(t, 1, "this is a test"),
	})

	st := a.ProcessingStatus()
	want := ProcessingStatus{
		TotalChunks:             2,
		ChunksWithEmbeddings:    1,
		ChunksWithoutEmbeddings: 1,
		IsFullyProcessed:        false,
		TotalWords:              6,
	}
	if st != want {
		t.Errorf("status = %+v, want %+v", st, want)
	}
	if len(a.ChunksWithEmbeddings()) != 1 || len(a.ChunksWithoutEmbeddings()) != 1 {
		t.Error("partition mismatch")
	}
}

func TestProcessingStatus_FullyProcessed(t *testing.T) {
	a := mustAggregate(t, 1)
	_ = a.AddChunks([]chunk.Chunk{
		makeChunk(t, 1, "hello world", 1, 0),
		makeChunk(t, 1, "this is a test", 0, 1),
	})
	if st := a.ProcessingStatus(); !st.IsFullyProcessed || st.TotalChunks != 2 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestSearchSimilarChunks_OrderAndThreshold(t *testing.T) {
	a := mustAggregate(t, 1)
	_ = a.AddChunks([]chunk.Chunk{
		makeChunk(t, 1, "low", 0, 1),
		makeChunk(t, 1, "tie-first", 1, 1),
		makeChunk(t, 1, "top", 1, 0),
		makeChunk(t, 1, "tie-second", 2, 2),
		makeChunk(t, 1, "no embedding"),
	})
	q, _ := vector.New([]float32{1, 0})

	scored, err := a.SearchSimilarChunks(q, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]string, len(scored))
	for i, s := range scored {
		got[i] = s.Chunk.Content()
	}
	want := []string{"top", "tie-first", "tie-second"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSearchSimilarChunks_DimMismatch(t *testing.T) {
	a := mustAggregate(t, 1)
	_ = a.AddChunk(makeChunk(t, 1, "x", 1, 0))
	q, _ := vector.New([]float32{1, 0, 0})

	if _, err := a.SearchSimilarChunks(q, 0); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestValidateIntegrity_EmptyDocument(t *testing.T) {
	a, _ := New(document.Reconstruct(1, "t", "", time.Now(), time.Now()))
	if a.ValidateIntegrity() {
		t.Error("empty document must fail integrity")
	}
}
