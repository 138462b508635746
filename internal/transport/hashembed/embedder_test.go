package hashembed

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/docsearch/internal/metrics"
)

func mustNew(t *testing.T, dim int) *Embedder {
	t.Helper()
	e, err := New(dim)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_RejectsBadDimensions(t *testing.T) {
	for _, d := range []int{0, -1} {
		if _, err := New(d); err == nil {
			t.Errorf("New(%d): expected error", d)
		}
	}
}

func TestEmbed_DeterministicUnitVector(t *testing.T) {
	e := mustNew(t, 64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(ctx, "hello world")
	c, _ := e.Embed(ctx, "something else")

	if len(a.Embedding) != 64 {
		t.Fatalf("dim = %d", len(a.Embedding))
	}
	var norm float64
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatal("same text must give the same vector")
		}
		norm += float64(a.Embedding[i]) * float64(a.Embedding[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2 = %f, want 1", norm)
	}

	same := true
	for i := range a.Embedding {
		if a.Embedding[i] != c.Embedding[i] {
			same = false
		}
	}
	if same {
		t.Error("different texts gave identical vectors")
	}
	if a.TotalTokens != 2 {
		t.Errorf("TotalTokens = %d", a.TotalTokens)
	}
}

func TestBatchEmbed_MatchesSingle(t *testing.T) {
	e := mustNew(t, 8)
	ctx := context.Background()

	batch, err := e.BatchEmbed(ctx, []string{"a b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	single, _ := e.Embed(ctx, "c")
	if batch.Embeddings[1][3] != single.Embedding[3] {
		t.Error("batch output must match single embeds")
	}
	if batch.TotalTokens != 3 {
		t.Errorf("TotalTokens = %d", batch.TotalTokens)
	}
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mustNew(t, 4).Embed(ctx, "x"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestEmbed_RecordsMetrics(t *testing.T) {
	e := mustNew(t, 8)
	requests := metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, ModelName, "success")
	tokens := metrics.EmbeddingTokensTotal.WithLabelValues(ProviderName, ModelName, "total")
	failures := metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, ModelName, "canceled")
	reqBefore, tokBefore, failBefore := testutil.ToFloat64(requests), testutil.ToFloat64(tokens), testutil.ToFloat64(failures)

	if _, err := e.Embed(context.Background(), "one two three"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := e.BatchEmbed(context.Background(), []string{"a b", "c"}); err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = e.Embed(ctx, "x")

	if got := testutil.ToFloat64(requests) - reqBefore; got != 2 {
		t.Errorf("requests delta = %v, want 2 (batch counts once)", got)
	}
	if got := testutil.ToFloat64(tokens) - tokBefore; got != 6 {
		t.Errorf("tokens delta = %v, want 6", got)
	}
	if got := testutil.ToFloat64(failures) - failBefore; got != 1 {
		t.Errorf("failures delta = %v, want 1", got)
	}
}
