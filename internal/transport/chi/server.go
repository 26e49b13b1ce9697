package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/answer"
	"github.com/kailas-cloud/casebud/internal/logger"
	healthuc "github.com/kailas-cloud/casebud/internal/usecase/health"
)

// internalErrorMessage is shown for every unclassified failure.
const internalErrorMessage = "An internal error occurred. Please try again later."

// maxRequestBodyBytes caps POST /legal-assistant/ bodies.
const maxRequestBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Assistant answers legal questions.
type Assistant interface {
	Answer(ctx context.Context, text string, webSearch, deepThink bool) (answer.Answer, error)
}

// ModelStatus exposes model readiness.
type ModelStatus interface {
	Status() map[string]bool
}

// Server holds the HTTP handlers of the assistant API.
type Server struct {
	assistant     Assistant
	models        ModelStatus
	health        *healthuc.Service
	logger        *zap.Logger
	metrics       http.Handler
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(assistant Assistant, models ModelStatus, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		assistant: assistant,
		models:    models,
		health:    health,
		logger:    logger,
		metrics:   promhttp.Handler(),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusInternalServerError),
	}
	return s
}

type legalQueryRequest struct {
	Query     *string `json:"query" validate:"required"`
	WebSearch bool    `json:"web_search"`
	DeepThink bool    `json:"deep_think"`
}

type legalQueryResponse struct {
	Query    string  `json:"query"`
	Response string  `json:"response"`
	Source   string  `json:"source"`
	IsDocGen *string `json:"is_doc_gen,omitempty"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

var (
	vld     *validator.Validate
	vldOnce sync.Once
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New(validator.WithRequiredStructEnabled()) })
	return vld
}

// LegalAssistant handles POST /legal-assistant/.
func (s *Server) LegalAssistant(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)

	var req legalQueryRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, decodeMessage(err))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body: unexpected data after JSON object")
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	a, err := s.assistant.Answer(r.Context(), *req.Query, req.WebSearch, req.DeepThink)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	resp := legalQueryResponse{
		Query:    a.Query(),
		Response: a.Response(),
		Source:   a.Source(),
	}
	if v, ok := a.IsDocGen(); ok {
		resp.IsDocGen = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

// ModelStatus handles GET /model-status/.
func (s *Server) ModelStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.models.Status())
}

// Root handles GET and HEAD /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "running",
		Message: "Legal AI Assistant is online!",
	})
}

// Readyz handles GET /readyz.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, readinessResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

// NotFound renders unknown routes in the error envelope.
func (s *Server) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed renders wrong-method requests in the error envelope.
func (s *Server) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Message:    message,
		StatusCode: status,
	})
}

func decodeMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("Invalid request body: exceeds %d bytes", tooLarge.Limit)
	}
	return "Invalid request body: " + err.Error()
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Invalid request body"
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, strings.ToLower(fe.Field())+" is "+fe.Tag())
	}
	return strings.Join(fields, "; ")
}

// conditionMessage returns the error text starting at the sentinel, dropping
// the wrapping context added on the way up ("search branch: refine query: ...").
func conditionMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, conditionMessage(err, sentinel))
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContextOr(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}
