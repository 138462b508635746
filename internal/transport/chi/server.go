// Package chi is the HTTP transport.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	domdoc "github.com/kailas-cloud/docsearch/internal/domain/document"
	"github.com/kailas-cloud/docsearch/internal/domain/document/aggregate"
	"github.com/kailas-cloud/docsearch/internal/domain/document/chunk"
	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	"github.com/kailas-cloud/docsearch/internal/domain/search/result"
	"github.com/kailas-cloud/docsearch/internal/logger"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	documents     DocumentService
	search        SearchService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(documents DocumentService, search SearchService, health HealthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		documents: documents,
		search:    search,
		health:    health,
		logger:    logger,
	}
	// Order matters: the first matching category wins.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrIntegrity, http.StatusConflict, ErrorResponseCodeConflict),
		sentinelHandler(domain.ErrUnprocessable, http.StatusUnprocessableEntity, ErrorResponseCodeUnprocessable),
		sentinelHandler(domain.ErrPersistence, http.StatusInternalServerError, ErrorResponseCodeInternalError),
	}
	return s
}

// CreateDocument handles POST /v1/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	details, err := s.documents.Create(ctx, req.Title, req.Content)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/documents/"+strconv.FormatInt(details.Document.ID(), 10))
	writeJSON(w, http.StatusCreated, detailsToResponse(details.Document, details.Chunks, details.Status))
}

// ListDocuments handles GET /v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request, params ListDocumentsParams) {
	var limit, offset int
	if params.Limit != nil {
		limit = *params.Limit
	}
	if params.Offset != nil {
		offset = *params.Offset
	}

	page, err := s.documents.List(r.Context(), limit, offset)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(page.Documents))
	for i, d := range page.Documents {
		items[i] = documentToResponse(d)
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// GetDocument handles GET /v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, id int64) {
	details, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailsToResponse(details.Document, details.Chunks, details.Status))
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocumentChunks handles GET /v1/documents/{id}/chunks.
func (s *Server) ListDocumentChunks(w http.ResponseWriter, r *http.Request, id int64) {
	chunks, err := s.documents.Chunks(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := chunksToResponse(chunks)
	writeJSON(w, http.StatusOK, ChunkListResponse{Items: items, Total: len(items)})
}

// GetChunk handles GET /v1/chunks/{id}.
func (s *Server) GetChunk(w http.ResponseWriter, r *http.Request, id int64) {
	c, err := s.documents.GetChunk(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chunkToResponse(&c))
}

// DeleteChunk handles DELETE /v1/chunks/{id}.
func (s *Server) DeleteChunk(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.documents.DeleteChunk(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmbedPending handles POST /v1/chunks/embed.
func (s *Server) EmbedPending(w http.ResponseWriter, r *http.Request, params EmbedPendingParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	n, err := s.documents.EmbedPending(ctx, limit)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EmbedPendingResponse{Updated: n})
}

// Search handles GET /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params SearchParams) {
	limit := query.DefaultLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	minSimilarity := query.DefaultMinSimilarity
	if params.MinSimilarity != nil {
		minSimilarity = *params.MinSimilarity
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, params.Query, limit, minSimilarity)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToResponse(&resp.Results[i])
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:        resp.Query,
		Results:      items,
		TotalResults: resp.TotalResults,
		Parameters: SearchParameters{
			Limit:         resp.Parameters.Limit,
			MinSimilarity: resp.Parameters.MinSimilarity,
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// InvalidParamHandler renders binding failures from HandlerWithOptions.
func InvalidParamHandler(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-facing message without exposing storage or provider internals.
func safeDomainMessage(err error) string {
	var iq *domain.InvalidQueryError
	if errors.As(err, &iq) {
		return iq.Error()
	}
	var own *domain.ChunkOwnershipError
	if errors.As(err, &own) {
		return own.Error()
	}

	for _, s := range domain.Leaves {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	if errors.Is(err, domain.ErrPersistence) || !domain.IsDomain(err) {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Warn("Domain error", zap.Error(err))
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func documentToResponse(d *domdoc.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID(),
		Title:     d.Title(),
		Content:   d.Content(),
		WordCount: d.WordCount(),
		CreatedAt: d.CreatedAt(),
		UpdatedAt: d.UpdatedAt(),
	}
}

func chunkToResponse(c *chunk.Chunk) ChunkResponse {
	return ChunkResponse{
		ID:           c.ID(),
		DocumentID:   c.DocumentID(),
		Content:      c.Content(),
		HasEmbedding: c.HasEmbedding(),
		WordCount:    c.WordCount(),
		CreatedAt:    c.CreatedAt(),
	}
}

func chunksToResponse(cs []chunk.Chunk) []ChunkResponse {
	out := make([]ChunkResponse, len(cs))
	for i := range cs {
		out[i] = chunkToResponse(&cs[i])
	}
	return out
}

func detailsToResponse(d *domdoc.Document, cs []chunk.Chunk, st aggregate.ProcessingStatus) DocumentDetailsResponse {
	return DocumentDetailsResponse{
		Document: documentToResponse(d),
		Chunks:   chunksToResponse(cs),
		ProcessingStatus: ProcessingStatusResponse{
			TotalChunks:             st.TotalChunks,
			ChunksWithEmbeddings:    st.ChunksWithEmbeddings,
			ChunksWithoutEmbeddings: st.ChunksWithoutEmbeddings,
			IsFullyProcessed:        st.IsFullyProcessed,
			TotalWords:              st.TotalWords,
		},
	}
}

func searchResultToResponse(r *result.Result) SearchResultItem {
	return SearchResultItem{
		ChunkID:           r.ChunkID(),
		DocumentID:        r.DocumentID(),
		DocumentTitle:     r.DocumentTitle(),
		Content:           r.Content(),
		Similarity:        r.Similarity(),
		SimilarityPercent: r.SimilarityPercent(),
	}
}
