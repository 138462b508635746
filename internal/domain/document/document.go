package document

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
)

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 255

// Title is a validated document title.
type Title struct {
	value string
}

// NewTitle validates a title: non-blank, at most MaxTitleLength characters.
func NewTitle(v string) (Title, error) {
	if strings.TrimSpace(v) == "" {
		return Title{}, domain.ErrDocumentTitleEmpty
	}
	if n := utf8.RuneCountInString(v); n > MaxTitleLength {
		return Title{}, fmt.Errorf("document title too long (%d > %d): %w", n, MaxTitleLength, domain.ErrValidation)
	}
	return Title{value: v}, nil
}

// String returns the raw title.
func (t Title) String() string { return t.value }

// Document is the document entity. It owns its chunk list while an aggregate is in scope.
type Document struct {
	id        int64
	title     Title
	content   string
	createdAt time.Time
	updatedAt time.Time
	chunks    []chunk.Chunk
}

// New validates and creates an unsaved Document.
func New(title, content string) (*Document, error) {
	t, err := NewTitle(title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrDocumentContentEmpty
	}
	return &Document{title: t, content: content}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id int64, title, content string, createdAt, updatedAt time.Time) *Document {
	return &Document{
		id: id, title: Title{value: title}, content: content,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the storage id, 0 until persisted.
func (d *Document) ID() int64 { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title.String() }

// Content returns the full text.
func (d *Document) Content() string { return d.content }

// CreatedAt returns the storage creation time.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the storage update time.
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// IsPersisted reports whether storage has assigned an id.
func (d *Document) IsPersisted() bool { return d.id > 0 }

// IsEmpty reports blank content.
func (d *Document) IsEmpty() bool { return strings.TrimSpace(d.content) == "" }

// WordCount counts whitespace-delimited tokens in the content.
func (d *Document) WordCount() int { return len(strings.Fields(d.content)) }

// SetIdentity records the id and timestamps assigned by storage.
func (d *Document) SetIdentity(id int64, createdAt, updatedAt time.Time) {
	d.id = id
	d.createdAt = createdAt
	d.updatedAt = updatedAt
}

// Chunks returns a copy of the attached chunk list.
func (d *Document) Chunks() []chunk.Chunk {
	out := make([]chunk.Chunk, len(d.chunks))
	copy(out, d.chunks)
	return out
}

// AddChunk appends c if it belongs to this document.
func (d *Document) AddChunk(c chunk.Chunk) error {
	if c.DocumentID() != d.id {
		return &domain.ChunkOwnershipError{
			ChunkID:         c.ID(),
			ChunkDocumentID: c.DocumentID(),
			DocumentID:      d.id,
		}
	}
	d.chunks = append(d.chunks, c)
	return nil
}
