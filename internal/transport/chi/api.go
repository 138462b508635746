package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is the machine-readable error kind in ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnprocessable    ErrorResponseCode = "unprocessable"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeConflict         ErrorResponseCode = "conflict"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// CreateDocumentRequest is the body of POST /v1/documents.
type CreateDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocumentResponse is a stored document.
type DocumentResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChunkResponse is a stored chunk. The vector itself is never returned.
type ChunkResponse struct {
	ID           int64     `json:"id"`
	DocumentID   int64     `json:"document_id"`
	Content      string    `json:"content"`
	HasEmbedding bool      `json:"has_embedding"`
	WordCount    int       `json:"word_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProcessingStatusResponse summarises a document's chunks.
type ProcessingStatusResponse struct {
	TotalChunks             int  `json:"total_chunks"`
	ChunksWithEmbeddings    int  `json:"chunks_with_embeddings"`
	ChunksWithoutEmbeddings int  `json:"chunks_without_embeddings"`
	IsFullyProcessed        bool `json:"is_fully_processed"`
	TotalWords              int  `json:"total_words"`
}

// DocumentDetailsResponse is a document with its chunks.
type DocumentDetailsResponse struct {
	Document         DocumentResponse         `json:"document"`
	Chunks           []ChunkResponse          `json:"chunks"`
	ProcessingStatus ProcessingStatusResponse `json:"processing_status"`
}

// DocumentListResponse is one page of documents.
type DocumentListResponse struct {
	Items  []DocumentResponse `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// ChunkListResponse lists chunks of one document.
type ChunkListResponse struct {
	Items []ChunkResponse `json:"items"`
	Total int             `json:"total"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	ChunkID           int64   `json:"chunk_id"`
	DocumentID        int64   `json:"document_id"`
	DocumentTitle     string  `json:"document_title"`
	Content           string  `json:"content"`
	Similarity        float64 `json:"similarity"`
	SimilarityPercent string  `json:"similarity_percent"`
}

// SearchParameters echoes the effective search parameters.
type SearchParameters struct {
	Limit         int     `json:"limit"`
	MinSimilarity float64 `json:"min_similarity"`
}

// SearchResponse is the body of GET /v1/search.
type SearchResponse struct {
	Query        string             `json:"query"`
	Results      []SearchResultItem `json:"results"`
	TotalResults int                `json:"total_results"`
	Parameters   SearchParameters   `json:"parameters"`
}

// EmbedPendingResponse reports how many chunks were backfilled.
type EmbedPendingResponse struct {
	Updated int `json:"updated"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ListDocumentsParams are the query parameters of GET /v1/documents.
type ListDocumentsParams struct {
	Limit  *int `form:"limit,omitempty" json:"limit,omitempty"`
	Offset *int `form:"offset,omitempty" json:"offset,omitempty"`
}

// EmbedPendingParams are the query parameters of POST /v1/chunks/embed.
type EmbedPendingParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// SearchParams are the query parameters of GET /v1/search.
type SearchParams struct {
	Query         string   `form:"query" json:"query"`
	Limit         *int     `form:"limit,omitempty" json:"limit,omitempty"`
	MinSimilarity *float64 `form:"min_similarity,omitempty" json:"min_similarity,omitempty"`
}

// ServerInterface is implemented by Server.
type ServerInterface interface {
	CreateDocument(w http.ResponseWriter, r *http.Request)
	ListDocuments(w http.ResponseWriter, r *http.Request, params ListDocumentsParams)
	GetDocument(w http.ResponseWriter, r *http.Request, id int64)
	DeleteDocument(w http.ResponseWriter, r *http.Request, id int64)
	ListDocumentChunks(w http.ResponseWriter, r *http.Request, id int64)
	GetChunk(w http.ResponseWriter, r *http.Request, id int64)
	DeleteChunk(w http.ResponseWriter, r *http.Request, id int64)
	EmbedPending(w http.ResponseWriter, r *http.Request, params EmbedPendingParams)
	Search(w http.ResponseWriter, r *http.Request, params SearchParams)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RequiredParamError reports a missing required query parameter.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("query argument %s is required, but not found", e.ParamName)
}

// serverInterfaceWrapper binds path and query parameters before calling the handler.
type serverInterfaceWrapper struct {
	handler          ServerInterface
	middlewares      []func(http.Handler) http.Handler
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, mw := range siw.middlewares {
		handler = mw(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return 0, false
	}
	return id, true
}

func (siw *serverInterfaceWrapper) CreateDocument(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.handler.CreateDocument)
}

func (siw *serverInterfaceWrapper) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var params ListDocumentsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &params.Offset); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "offset", Err: err})
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.handler.ListDocuments(w, r, params)
	})
}

func (siw *serverInterfaceWrapper) withID(h func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := siw.pathID(w, r)
		if !ok {
			return
		}
		siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) { h(w, r, id) })
	}
}

func (siw *serverInterfaceWrapper) EmbedPending(w http.ResponseWriter, r *http.Request) {
	var params EmbedPendingParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.handler.EmbedPending(w, r, params)
	})
}

func (siw *serverInterfaceWrapper) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	q := r.URL.Query()

	if _, ok := q["query"]; !ok {
		siw.errorHandlerFunc(w, r, &RequiredParamError{ParamName: "query"})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "query", q, &params.Query); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "query", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "min_similarity", q, &params.MinSimilarity); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "min_similarity", Err: err})
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.handler.Search(w, r, params)
	})
}

// HandlerWithOptions mounts every route of si on options.BaseRouter (or a new router).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	w := &serverInterfaceWrapper{
		handler:          si,
		middlewares:      options.Middlewares,
		errorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post("/v1/documents", w.CreateDocument)
		r.Get("/v1/documents", w.ListDocuments)
		r.Get("/v1/documents/{id}", w.withID(si.GetDocument))
		r.Delete("/v1/documents/{id}", w.withID(si.DeleteDocument))
		r.Get("/v1/documents/{id}/chunks", w.withID(si.ListDocumentChunks))
		r.Post("/v1/chunks/embed", w.EmbedPending)
		r.Get("/v1/chunks/{id}", w.withID(si.GetChunk))
		r.Delete("/v1/chunks/{id}", w.withID(si.DeleteChunk))
		r.Get("/v1/search", w.Search)
		r.Get("/health", func(rw http.ResponseWriter, req *http.Request) { w.serve(rw, req, si.HealthCheck) })
		r.Get("/metrics", func(rw http.ResponseWriter, req *http.Request) { w.serve(rw, req, si.Metrics) })
	})
	return r
}
