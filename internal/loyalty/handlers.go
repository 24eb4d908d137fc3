package loyalty

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes the customer loyalty endpoints and the admin adjustment.
type Handler struct {
	Svc *Service
}

// Balance returns the authenticated user's point balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	uID, err := store.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	balance, err := h.Svc.Balance(r.Context(), uID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load balance", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"balance":    balance,
		"pointValue": h.Svc.Policy.PointValue,
		"minRedeem":  h.Svc.Policy.MinRedeemPoints,
	})
}

// Ledger returns the authenticated user's point movement history.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	uID, err := store.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	entries, err := h.Svc.Ledger(r.Context(), uID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load ledger", nil)
		return
	}
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"id":        store.UUIDString(e.ID),
			"orderId":   store.UUIDString(e.OrderID),
			"delta":     e.Delta,
			"reason":    e.Reason,
			"createdAt": e.CreatedAt.Time,
		})
	}
	common.JSONData(w, http.StatusOK, items)
}

type adjustRequest struct {
	Delta int64 `json:"delta"`
}

// AdminAdjust applies a manual point correction to a customer account.
func (h *Handler) AdminAdjust(w http.ResponseWriter, r *http.Request) {
	uID, err := store.ToUUID(chi.URLParam(r, "userId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "delta must be a non-zero integer", nil)
		return
	}
	balance, err := h.Svc.Adjust(r.Context(), uID, req.Delta)
	if err != nil {
		if errors.Is(err, ErrInsufficientPoints) {
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_POINTS", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to adjust points", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"balance": balance})
}
