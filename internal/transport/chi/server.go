// Package chi exposes the HTTP API: article ingestion, recommendation
// queries, news fetching, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newslens-cloud/newslens/internal/domain"
	healthuc "github.com/newslens-cloud/newslens/internal/usecase/health"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeInvalidTopK          = "invalid_top_k"
	codeVectorDimMismatch    = "vector_dim_mismatch"
	codeRateLimited          = "rate_limited"
	codeEmbeddingProviderErr = "embedding_provider_error"
	codeNewsProviderErr      = "news_provider_error"
	codeNewsAuthFailed       = "news_auth_failed"
	codeNewsNotConfigured    = "news_not_configured"
	codeInternalError        = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Recommender handles article ingestion and similarity queries.
type Recommender interface {
	Ingest(ctx context.Context, records []domain.RawArticle) (int, error)
	Recommend(ctx context.Context, query string, topK int) ([]domain.Recommendation, error)
	Count() int
	DefaultTopK() int
}

// NewsFetcher fetches current headlines.
type NewsFetcher interface {
	Fetch(ctx context.Context, query string, pageSize int) ([]domain.RawArticle, error)
}

// HealthChecker reports aggregated component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements the HTTP API handlers.
type Server struct {
	recommender   Recommender
	news          NewsFetcher
	health        HealthChecker
	logger        *zap.Logger
	maxBatchSize  int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. news may be nil when no provider
// key is configured.
func NewServer(recommender Recommender, news NewsFetcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		recommender:  recommender,
		news:         news,
		health:       health,
		logger:       logger,
		maxBatchSize: 100,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, codeInvalidTopK),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrNewsAuthFailed, http.StatusUnauthorized, codeNewsAuthFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderErr),
		sentinelHandler(domain.ErrNewsProviderError, http.StatusBadGateway, codeNewsProviderErr),
	}
	return s
}

// WithMaxBatchSize overrides the ingestion batch limit.
func (s *Server) WithMaxBatchSize(n int) *Server {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// Routes mounts the API handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/articles", s.IngestArticles)
	r.Post("/api/recommendations", s.GetRecommendations)
	r.Get("/api/news", s.FetchNews)
	r.Get("/api/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ingestRequest is the POST /api/articles body.
type ingestRequest struct {
	Articles []domain.RawArticle `json:"articles"`
}

// ingestResponse reports how many articles were stored.
type ingestResponse struct {
	Status string `json:"status"`
	Stored int    `json:"stored"`
	Total  int    `json:"total"`
}

// IngestArticles handles POST /api/articles.
func (s *Server) IngestArticles(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Articles) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "articles is required")
		return
	}
	if len(req.Articles) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("articles count must be between 1 and %d", s.maxBatchSize))
		return
	}

	stored, err := s.recommender.Ingest(r.Context(), req.Articles)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status: "ok",
		Stored: stored,
		Total:  s.recommender.Count(),
	})
}

// recommendRequest is the POST /api/recommendations body. TopK is a
// pointer so an omitted field falls back to the default while an explicit
// zero is rejected.
type recommendRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

// recommendResponse carries the ranked results.
type recommendResponse struct {
	Query           string                  `json:"query"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Count           int                     `json:"count"`
}

// GetRecommendations handles POST /api/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	topK := s.recommender.DefaultTopK()
	if req.TopK != nil {
		topK = *req.TopK
	}

	recs, err := s.recommender.Recommend(r.Context(), req.Query, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Query:           req.Query,
		Recommendations: recs,
		Count:           len(recs),
	})
}

// newsResponse is the GET /api/news body.
type newsResponse struct {
	Articles []domain.RawArticle `json:"articles"`
	Count    int                 `json:"count"`
}

// FetchNews handles GET /api/news.
func (s *Server) FetchNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusServiceUnavailable, codeNewsNotConfigured, "news provider is not configured")
		return
	}

	query := r.URL.Query().Get("q")

	pageSize := 0
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "pageSize must be a positive integer")
			return
		}
		pageSize = n
	}

	articles, err := s.news.Fetch(r.Context(), query, pageSize)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newsResponse{
		Articles: articles,
		Count:    len(articles),
	})
}

// healthResponse is the GET /api/health body.
type healthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Articles int               `json:"articles"`
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Articles: report.Articles,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidTopK,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrNewsProviderError,
		domain.ErrNewsAuthFailed,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
