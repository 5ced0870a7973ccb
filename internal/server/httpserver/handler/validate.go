package handler

import (
	"net/http"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

// Validate handles POST /validate. The token comes from the Authorization
// bearer header or, failing that, the JSON body. An unknown token is not
// an error: the response is {"valid": false}.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		var req ValidateRequest
		if err := decodeBody(w, r, &req); err != nil {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrProtocol.Code, "invalid request body", nil)
			return
		}
		tok = req.Token
	}

	if tok == "" {
		h.writeError(w, r, http.StatusUnauthorized, domain.ErrUnauthorized.Code, "token is required", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, ValidateResponse{Valid: h.validator.Validate(tok)})
}
