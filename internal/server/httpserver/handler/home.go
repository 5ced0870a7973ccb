package handler

import (
	"fmt"
	"html"
	"net/http"
)

// Home handles GET / with the one-line status page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<p>ScuttleKit %s is installed.</p>\n", html.EscapeString(h.version))
}
