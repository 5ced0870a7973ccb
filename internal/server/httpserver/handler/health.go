package handler

import (
	"net/http"
	"time"
)

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.ready(); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not_ready",
			Time:   now,
			Error:  err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ready", Time: now})
}
