package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// AdminHandler exposes back-office order management.
type AdminHandler struct {
	Svc *Service
}

// List returns all orders for the back office.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, err := h.Svc.Q.ListOrders(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load orders", nil)
		return
	}
	items := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		items = append(items, serialiseOrder(o, nil))
	}
	common.JSONData(w, http.StatusOK, items)
}

// Get returns one order with its lines, without ownership scoping.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	oID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, items, err := h.Svc.Get(r.Context(), oID, pgtype.UUID{})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseOrder(o, items))
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus moves an order along the fulfilment pipeline.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	oID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "status is required", nil)
		return
	}
	o, err := h.Svc.SetStatus(r.Context(), oID, store.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update status", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, serialiseOrder(o, nil))
}
