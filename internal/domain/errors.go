package domain

import (
	"errors"
	"fmt"
)

// kindError is a sentinel that belongs to a broader category.
// errors.Is matches both the sentinel itself and every category above it.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

func newKind(parent error, msg string) error {
	return &kindError{msg: msg, parent: parent}
}

// ErrDomain is the root of every domain error.
var ErrDomain = errors.New("domain error")

// Categories. The HTTP layer maps these to status codes.
var (
	// ErrValidation signals invalid client input.
	ErrValidation = newKind(ErrDomain, "validation failed")
	// ErrUnprocessable signals input that passed validation but could not be processed.
	ErrUnprocessable = newKind(ErrDomain, "unprocessable input")
	// ErrPersistence signals a storage write failure.
	ErrPersistence = newKind(ErrDomain, "persistence failure")
	// ErrNotFound signals a missing resource.
	ErrNotFound = newKind(ErrDomain, "not found")
	// ErrIntegrity signals a broken ownership invariant.
	ErrIntegrity = newKind(ErrDomain, "integrity violation")
)

// Validation errors.
var (
	// ErrDocumentTitleEmpty signals a blank document title.
	ErrDocumentTitleEmpty = newKind(ErrValidation, "document title cannot be empty")
	// ErrDocumentContentEmpty signals blank document content.
	ErrDocumentContentEmpty = newKind(ErrValidation, "document content cannot be empty")
	// ErrDocumentTooShort signals content too short to be chunked.
	ErrDocumentTooShort = newKind(ErrValidation, "document must have at least 10 characters to be processed")
	// ErrChunkContentEmpty signals blank chunk content.
	ErrChunkContentEmpty = newKind(ErrValidation, "chunk content cannot be empty")
	// ErrChunkWithoutEmbedding signals a similarity request on a chunk with no vector.
	ErrChunkWithoutEmbedding = newKind(ErrValidation, "chunk has no embedding")
	// ErrSearchQueryEmpty signals a blank search query.
	ErrSearchQueryEmpty = newKind(ErrValidation, "search query cannot be empty")
	// ErrSearchQueryInvalid signals invalid search parameters.
	ErrSearchQueryInvalid = newKind(ErrValidation, "invalid search parameters")
	// ErrEmbeddingEmpty signals an empty embedding vector.
	ErrEmbeddingEmpty = newKind(ErrValidation, "embedding cannot be empty")
	// ErrVectorDimMismatch signals vectors of different dimensions.
	ErrVectorDimMismatch = newKind(ErrValidation, "vector dimension mismatch")
)

// Processing errors.
var (
	// ErrDocumentProcessing signals that chunking or embedding produced no usable output.
	ErrDocumentProcessing = newKind(ErrUnprocessable, "document processing failed")
	// ErrEmbeddingGeneration signals that the embedding provider failed or returned nothing.
	ErrEmbeddingGeneration = newKind(ErrUnprocessable, "embedding generation failed")
	// ErrEmbeddingProviderError signals an embedding provider API failure.
	ErrEmbeddingProviderError = newKind(ErrEmbeddingGeneration, "embedding provider error")
)

// Persistence errors.
var (
	// ErrDocumentSave signals a failed document write.
	ErrDocumentSave = newKind(ErrPersistence, "failed to save document")
	// ErrChunkSave signals a failed chunk write.
	ErrChunkSave = newKind(ErrPersistence, "failed to save chunk")
)

// Lookup errors.
var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = newKind(ErrNotFound, "document not found")
	// ErrChunkNotFound signals a missing chunk.
	ErrChunkNotFound = newKind(ErrNotFound, "chunk not found")
)

// ErrChunkNotBelongs signals a chunk attached to a document it does not belong to.
var ErrChunkNotBelongs = newKind(ErrIntegrity, "chunk does not belong to document")

// Leaves lists the specific sentinels, most specific first.
// Used to render a client-safe message without leaking wrapped causes.
var Leaves = []error{
	ErrDocumentTitleEmpty,
	ErrDocumentContentEmpty,
	ErrDocumentTooShort,
	ErrChunkContentEmpty,
	ErrChunkWithoutEmbedding,
	ErrSearchQueryEmpty,
	ErrSearchQueryInvalid,
	ErrEmbeddingEmpty,
	ErrVectorDimMismatch,
	ErrDocumentProcessing,
	ErrEmbeddingProviderError,
	ErrEmbeddingGeneration,
	ErrDocumentSave,
	ErrChunkSave,
	ErrDocumentNotFound,
	ErrChunkNotFound,
	ErrChunkNotBelongs,
}

// ChunkOwnershipError wraps ErrChunkNotBelongs with both document ids.
type ChunkOwnershipError struct {
	ChunkID         int64
	ChunkDocumentID int64
	DocumentID      int64
}

func (e *ChunkOwnershipError) Error() string {
	return fmt.Sprintf("chunk %d (document %d) does not belong to document %d",
		e.ChunkID, e.ChunkDocumentID, e.DocumentID)
}

func (e *ChunkOwnershipError) Unwrap() error { return ErrChunkNotBelongs }

// InvalidQueryError wraps ErrSearchQueryInvalid with the failing rule.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSearchQueryInvalid.Error(), e.Reason)
}

func (e *InvalidQueryError) Unwrap() error { return ErrSearchQueryInvalid }

// NewInvalidQuery creates an invalid search parameters error.
func NewInvalidQuery(reason string) error {
	return &InvalidQueryError{Reason: reason}
}

// IsDomain reports whether err carries any domain error.
func IsDomain(err error) bool {
	return errors.Is(err, ErrDomain)
}
