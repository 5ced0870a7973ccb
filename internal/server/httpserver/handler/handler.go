package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/core/service"
	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Registrar issues app tokens. *service.Registrar satisfies it.
type Registrar interface {
	Register(ctx context.Context, params *domain.RegistrationParams) (*service.RegisterResponse, error)
}

// TokenValidator checks tokens. *service.Validator satisfies it.
type TokenValidator interface {
	Validate(token string) bool
}

// ReadyFunc reports whether the gateway can serve traffic.
type ReadyFunc func() error

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	registrar Registrar
	validator TokenValidator
	version   string
	ready     ReadyFunc
	log       logger.Logger
}

// Config holds the dependencies for New.
type Config struct {
	Registrar Registrar
	Validator TokenValidator
	// Version is shown on the status page.
	Version string
	// Ready backs GET /ready; nil means always ready.
	Ready  ReadyFunc
	Logger logger.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		registrar: cfg.Registrar,
		validator: cfg.Validator,
		version:   cfg.Version,
		ready:     cfg.Ready,
		log:       cfg.Logger,
	}
	if h.log == nil {
		h.log = logger.Default()
	}
	if h.ready == nil {
		h.ready = func() error { return nil }
	}
	return h
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("POST /register", h.RegisterApp)
	mux.HandleFunc("POST /validate", h.Validate)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
}

// writeJSON writes data as the response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
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
	de := domain.AsDomainError(err)
	if de.Code == domain.ErrInternal.Code {
		logger.L(r.Context()).Error("internal error", "path", r.URL.Path, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, de.Code, "internal server error", nil)
		return
	}

	var details any
	if de.Details != "" {
		details = de.Details
	}
	h.writeError(w, r, errorCodeToHTTPStatus(de.Code), de.Code, de.Message, details)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-5040"):
		return http.StatusGatewayTimeout
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	const prefix = "bearer "
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
