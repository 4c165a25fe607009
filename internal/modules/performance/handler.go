package performance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the historical performance read endpoint.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/vendors/{vendor_code}/performance", h.vendorHistory) // GET /api/v1/vendors/{vendor_code}/performance
}

func (h *Handler) vendorHistory(w http.ResponseWriter, r *http.Request) {
	vendorCode := chi.URLParam(r, "vendor_code")
	snaps, err := h.service.VendorHistory(r.Context(), vendorCode)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrVendorNotFound) {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	if snaps == nil {
		snaps = []*Snapshot{}
	}
	respond(w, http.StatusOK, snaps)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
