package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes the admin inventory endpoints.
type Handler struct {
	Svc *Service
}

type adjustRequest struct {
	Delta int32 `json:"delta"`
}

// Adjust handles PATCH /admin/inventory/{variantID}.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	variantID, err := store.ToUUID(chi.URLParam(r, "variantID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid variant id", nil)
		return
	}
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	adj, err := h.Svc.Adjust(r.Context(), variantID, req.Delta)
	switch {
	case errors.Is(err, ErrZeroDelta):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "variant not found", nil)
	case err != nil:
		common.WriteError(w, err)
	default:
		common.JSONData(w, http.StatusOK, adj)
	}
}

// LowStock handles GET /admin/inventory/low-stock.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	variants, err := h.Svc.LowStock(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(variants))
	for _, v := range variants {
		out = append(out, map[string]any{
			"variantId": store.UUIDString(v.ID),
			"product":   v.ProductName,
			"packSize":  v.PackSize,
			"stock":     v.Stock,
		})
	}
	common.JSONData(w, http.StatusOK, out)
}
