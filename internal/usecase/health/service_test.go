package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type slowChecker struct{}

func (slowChecker) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck(t *testing.T) {
	fail := errors.New("fail")
	tests := []struct {
		name      string
		db        error
		embedding error
		cache     error
		want      Status
	}{
		{"all healthy", nil, nil, nil, Healthy},
		{"database down", fail, nil, nil, Unhealthy},
		{"embedding down", nil, fail, nil, Degraded},
		{"cache down", nil, nil, fail, Degraded},
		{"database and cache down", fail, nil, fail, Unhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tc.db}, &mockEmbeddingChecker{err: tc.embedding}).
				WithCache(&mockPinger{err: tc.cache})
			r := svc.Check(context.Background())

			if r.Status != tc.want {
				t.Errorf("expected %q, got %q", tc.want, r.Status)
			}
			if len(r.Checks) != 3 {
				t.Errorf("expected 3 checks, got %v", r.Checks)
			}
			if (tc.db != nil) != (r.Checks["database"] == CheckError) {
				t.Errorf("database check = %q", r.Checks["database"])
			}
		})
	}
}

func TestCheck_OptionalProbesAbsent(t *testing.T) {
	r := New(&mockPinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check should be absent without WithCache")
	}
}

func TestCheck_ProbeTimeout(t *testing.T) {
	svc := New(&mockPinger{}, slowChecker{}).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("probe timeout not applied")
	}
	if r.Checks["embedding"] != CheckError || r.Status != Degraded {
		t.Errorf("unexpected report: %+v", r)
	}
}
