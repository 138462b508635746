package query

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	q, err := New("hello", DefaultLimit, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "hello" || q.Limit() != 5 || q.MinSimilarity() != 0.9 {
		t.Errorf("unexpected query: %+v", q)
	}
}

func TestNew_Bounds(t *testing.T) {
	for _, sim := range []float64{0, 1} {
		if _, err := New("q", 1, sim); err != nil {
			t.Errorf("minSimilarity=%v: unexpected error %v", sim, err)
		}
	}
}

func TestNew_Empty(t *testing.T) {
	for _, text := range []string{"", "  ", "\n"} {
		_, err := New(text, 5, 0)
		if !errors.Is(err, domain.ErrSearchQueryEmpty) {
			t.Errorf("New(%q): expected ErrSearchQueryEmpty, got %v", text, err)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		limit  int
		min    float64
		reason string
	}{
		{"zero limit", "q", 0, 0, "limit"},
		{"negative limit", "q", -3, 0, "limit"},
		{"negative similarity", "q", 5, -0.1, "similarity"},
		{"similarity above one", "q", 5, 1.01, "similarity"},
		{"nan similarity", "q", 5, math.NaN(), "similarity"},
		{"too long", strings.Repeat("a", MaxQueryLength+1), 5, 0, "too long"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.text, tc.limit, tc.min)
			if !errors.Is(err, domain.ErrSearchQueryInvalid) {
				t.Fatalf("expected ErrSearchQueryInvalid, got %v", err)
			}
			var qe *domain.InvalidQueryError
			if !errors.As(err, &qe) || !strings.Contains(qe.Reason, tc.reason) {
				t.Errorf("reason = %v, want containing %q", err, tc.reason)
			}
		})
	}
}
