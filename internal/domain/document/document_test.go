package document

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("Doc A", "hello world this is a test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title() != "Doc A" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if doc.ID() != 0 || doc.IsPersisted() {
		t.Error("new document must not be persisted")
	}
	if doc.WordCount() != 6 {
		t.Errorf("WordCount() = %d, want 6", doc.WordCount())
	}
	if doc.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
}

func TestNew_NonBlankAlwaysSucceeds(t *testing.T) {
	titles := []string{"a", " padded ", "Заголовок", strings.Repeat("x", MaxTitleLength)}
	contents := []string{"x", "  some text  ", "line\nbreak"}
	for _, title := range titles {
		for _, content := range contents {
			if _, err := New(title, content); err != nil {
				t.Errorf("New(%q, %q): %v", title, content, err)
			}
		}
	}
}

func TestNew_BlankTitle(t *testing.T) {
	for _, title := range []string{"", " ", "\t\n"} {
		_, err := New(title, "content")
		if !errors.Is(err, domain.ErrDocumentTitleEmpty) {
			t.Errorf("New(%q): expected ErrDocumentTitleEmpty, got %v", title, err)
		}
	}
}

func TestNew_BlankContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n"} {
		_, err := New("title", content)
		if !errors.Is(err, domain.ErrDocumentContentEmpty) {
			t.Errorf("New(%q): expected ErrDocumentContentEmpty, got %v", content, err)
		}
	}
}

func TestNewTitle_TooLong(t *testing.T) {
	_, err := NewTitle(strings.Repeat("я", MaxTitleLength+1))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if errors.Is(err, domain.ErrDocumentTitleEmpty) {
		t.Error("too long must not report empty")
	}
}

func TestAddChunk_Ownership(t *testing.T) {
	doc := Reconstruct(1, "t", "content", time.Now(), time.Now())

	own, _ := chunk.New(1, "mine")
	if err := doc.AddChunk(own); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreign, _ := chunk.New(2, "theirs")
	err := doc.AddChunk(foreign)
	if !errors.Is(err, domain.ErrChunkNotBelongs) {
		t.Fatalf("expected ErrChunkNotBelongs, got %v", err)
	}
	if len(doc.Chunks()) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(doc.Chunks()))
	}
}

func TestChunks_ReturnsCopy(t *testing.T) {
	doc := Reconstruct(1, "t", "content", time.Now(), time.Now())
	c, _ := chunk.New(1, "one")
	_ = doc.AddChunk(c)

	list := doc.Chunks()
	list[0] = chunk.Chunk{}
	if got := doc.Chunks()[0]; got.Content() != "one" {
		t.Errorf("slice mutation leaked: %q", got.Content())
	}
}

func TestSetIdentity(t *testing.T) {
	doc, _ := New("t", "content")
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc.SetIdentity(5, ts, ts)
	if doc.ID() != 5 || !doc.IsPersisted() || !doc.CreatedAt().Equal(ts) || !doc.UpdatedAt().Equal(ts) {
		t.Errorf("unexpected identity: id=%d", doc.ID())
	}
}

func TestReconstruct_EmptyContent(t *testing.T) {
	doc := Reconstruct(1, "t", "  ", time.Time{}, time.Time{})
	if !doc.IsEmpty() {
		t.Error("expected IsEmpty() for blank stored content")
	}
}
