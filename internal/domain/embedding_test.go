package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	texts  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.texts = append(s.texts, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchResult BatchEmbeddingResult
	batchErr    error
	batchTexts  []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchTexts = texts
	return s.batchResult, s.batchErr
}

func TestEmbedBatch_UsesNativeBatch(t *testing.T) {
	inner := &stubBatchEmbedder{batchResult: BatchEmbeddingResult{
		Embeddings:  [][]float32{{1}, {2}},
		TotalTokens: 7,
	}}

	res, err := EmbedBatch(context.Background(), inner, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 7 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(inner.texts) != 0 {
		t.Errorf("single Embed must not be called, got %v", inner.texts)
	}
}

func TestEmbedBatch_FallsBackToSingle(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}, PromptTokens: 2, TotalTokens: 3}}

	res, err := EmbedBatch(context.Background(), inner, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.PromptTokens != 6 || res.TotalTokens != 9 {
		t.Errorf("tokens = %d/%d, want 6/9", res.PromptTokens, res.TotalTokens)
	}
}

func TestEmbedBatch_NativeError(t *testing.T) {
	cause := errors.New("batch down")
	inner := &stubBatchEmbedder{batchErr: cause}

	_, err := EmbedBatch(context.Background(), inner, []string{"a"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestBatchFallback_StopsOnFirstError(t *testing.T) {
	cause := errors.New("fail")
	inner := &stubEmbedder{err: cause}

	_, err := BatchFallback(context.Background(), inner, []string{"a", "b"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if len(inner.texts) != 1 {
		t.Errorf("expected 1 call before abort, got %d", len(inner.texts))
	}
}

func TestBatchFallback_Empty(t *testing.T) {
	res, err := BatchFallback(context.Background(), &stubEmbedder{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 {
		t.Errorf("expected 0 embeddings, got %d", len(res.Embeddings))
	}
}

func TestInstructionEmbedder_PrefixesQuery(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	emb := NewInstructionEmbedder(inner, "search_query: ")

	if _, err := emb.Embed(context.Background(), "what is go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.texts[0] != "search_query: what is go" {
		t.Errorf("got %q", inner.texts[0])
	}
}

func TestInstructionEmbedder_PrefixesBatch(t *testing.T) {
	inner := &stubBatchEmbedder{batchResult: BatchEmbeddingResult{Embeddings: [][]float32{{1}, {2}}}}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	if _, err := emb.BatchEmbed(context.Background(), []string{"one", "two"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"search_document: one", "search_document: two"}
	for i := range want {
		if inner.batchTexts[i] != want[i] {
			t.Errorf("batchTexts[%d] = %q, want %q", i, inner.batchTexts[i], want[i])
		}
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	cause := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: cause}, "x: ")

	if _, err := emb.Embed(context.Background(), "hello"); !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestEmbeddingUsage_NilSafe(t *testing.T) {
	var u *EmbeddingUsage
	u.AddTokens(10)
	if u.Used() {
		t.Error("nil usage must report unused")
	}

	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(4)
	UsageFromContext(ctx).AddTokens(0)
	if usage.TotalTokens != 4 || usage.Calls != 2 || !usage.Used() {
		t.Errorf("unexpected usage: %+v", usage)
	}
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil collector on bare context")
	}
}
