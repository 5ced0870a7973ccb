package handler

import (
	"net/http"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

// RegisterApp handles POST /register.
func (h *Handler) RegisterApp(w http.ResponseWriter, r *http.Request) {
	var params domain.RegistrationParams
	if r.ContentLength == 0 {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidRegistration.Code, "request body is required", nil)
		return
	}
	if err := decodeBody(w, r, &params); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrProtocol.Code, "invalid request body", nil)
		return
	}

	resp, err := h.registrar.Register(r.Context(), &params)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RegisterResponse{
		Token:    resp.Token,
		Settings: resp.Settings,
	})
}
