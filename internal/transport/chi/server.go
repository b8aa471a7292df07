package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/domain"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/unisearch/internal/logger"
	healthuc "github.com/kailas-cloud/unisearch/internal/usecase/health"
)

// Searcher runs a parsed search request and returns the response payload.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (map[string]any, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search API over HTTP.
type Server struct {
	searcher      Searcher
	health        *healthuc.Service
	parserOpts    request.ParserOptions
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	searcher Searcher,
	health *healthuc.Service,
	parserOpts request.ParserOptions,
	logger *zap.Logger,
) *Server {
	s := &Server{
		searcher:   searcher,
		health:     health,
		parserOpts: parserOpts,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, "index_not_found"),
		sentinelHandler(domain.ErrQueryRejected, http.StatusInternalServerError, "query_rejected"),
		sentinelHandler(domain.ErrUpstream, http.StatusServiceUnavailable, "upstream_unavailable"),
	}
	return s
}

// Routes mounts the API handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/unified_search", s.UnifiedSearch)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// UnifiedSearch handles GET /unified_search.
func (s *Server) UnifiedSearch(w http.ResponseWriter, r *http.Request) {
	req, err := request.Parse(r.URL.Query(), s.parserOpts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	payload, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.StatusHealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, report)
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
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// validationHandler reports each parse problem to the caller.
func validationHandler(w http.ResponseWriter, err error) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"code":    "validation_failed",
		"message": verr.Error(),
		"errors":  verr.Problems,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
