package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/service"
	"github.com/yndnr/tickstate-go/internal/telemetry/logger"
)

// PartitionStore is the partition log surface the admin API needs.
type PartitionStore interface {
	List() ([]domain.PartitionID, error)
	Load(p domain.PartitionID) ([]domain.Record, error)
	Unload(p domain.PartitionID)
}

// Forker forks a partition.
type Forker interface {
	Fork(ctx context.Context, src domain.PartitionID) (*service.ForkResult, error)
}

// Verifier resolves a plaintext credential token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Credential, error)
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	logs     PartitionStore
	forker   Forker
	verifier Verifier
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a new Handler.
func New(logs PartitionStore, forker Forker, verifier Verifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logs:     logs,
		forker:   forker,
		verifier: verifier,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)

	h.mux.HandleFunc("GET /admin/v1/partitions", h.handleListPartitions)
	h.mux.HandleFunc("GET /admin/v1/partitions/{id}/log", h.handleDumpLog)
	h.mux.HandleFunc("POST /admin/v1/partitions/{id}/unload", h.handleUnload)
	h.mux.HandleFunc("POST /admin/v1/partitions/{id}/fork", h.handleFork)

	h.mux.HandleFunc("POST /admin/v1/credentials/verify", h.handleVerifyCredential)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error(), nil)
		return
	}

	h.logger.ErrorContext(r.Context(), "internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4130"):
		return http.StatusRequestEntityTooLarge
	case strings.HasSuffix(code, "-4220"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasPrefix(code, "TS-ARG-"), strings.Contains(code, "-400"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// partitionParam parses the {id} path value.
func (h *Handler) partitionParam(w http.ResponseWriter, r *http.Request) (domain.PartitionID, bool) {
	p, err := domain.ParsePartitionID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "invalid partition id", nil)
		return 0, false
	}
	return p, true
}
