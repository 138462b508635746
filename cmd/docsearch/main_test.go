package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionNeedsNoConfig(t *testing.T) {
	out, err := execute(t, "version", "--config", "/nonexistent.yaml")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "docsearch") {
		t.Errorf("output = %q", out)
	}
}

func TestIngest_TitleRequiresSingleFile(t *testing.T) {
	_, err := execute(t, "ingest", "--title", "T", "a.txt", "b.txt")
	if err == nil || !strings.Contains(err.Error(), "--title") {
		t.Fatalf("expected --title error, got %v", err)
	}
}

func TestIngest_RequiresFiles(t *testing.T) {
	if _, err := execute(t, "ingest"); err == nil {
		t.Fatal("expected error without files")
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "embed-pending", "--config", "/nonexistent.yaml")
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestTitleFor(t *testing.T) {
	tests := []struct {
		path, explicit, want string
	}{
		{"/docs/readme.md", "", "readme"},
		{"notes.txt", "Custom", "Custom"},
		{"plain", "", "plain"},
		{".env", "", ".env"},
	}
	for _, tc := range tests {
		if got := titleFor(tc.path, tc.explicit); got != tc.want {
			t.Errorf("titleFor(%q, %q) = %q, want %q", tc.path, tc.explicit, got, tc.want)
		}
	}
}

func TestOutputSearch(t *testing.T) {
	hit, err := result.FromRow(result.Row{ChunkID: 1, DocumentID: 2, Content: "hello world", DocumentTitle: "Doc A", Similarity: 0.95})
	if err != nil {
		t.Fatalf("FromRow: %v", err)
	}
	resp := searchuc.Response{Query: "hello", Results: []result.Result{hit}, TotalResults: 1}

	cmd := newSearchCmd(&rootOptions{})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	outputSearchTable(cmd, resp)
	if out := buf.String(); !strings.Contains(out, "[1] Doc A (95.0%)") || !strings.Contains(out, "hello world") {
		t.Errorf("table output = %q", out)
	}

	buf.Reset()
	if err := outputSearchJSON(cmd, resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, `"similarity_percent": "95.0%"`) {
		t.Errorf("json output = %q", out)
	}

	buf.Reset()
	outputSearchTable(cmd, searchuc.Response{Query: "x"})
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("empty output = %q", buf.String())
	}
}
