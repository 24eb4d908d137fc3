package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes customer-facing order endpoints.
type Handler struct {
	Svc *Service
}

// List returns the authenticated user's order history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uID, ok := authedUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, total, err := h.Svc.ListForUser(r.Context(), uID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load orders", nil)
		return
	}
	items := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		items = append(items, serialiseOrder(o, nil))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Get returns one of the authenticated user's orders with its lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uID, ok := authedUser(w, r)
	if !ok {
		return
	}
	oID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, items, err := h.Svc.Get(r.Context(), oID, uID)
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

// Cancel aborts an order the user owns, when it has not shipped yet.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	uID, ok := authedUser(w, r)
	if !ok {
		return
	}
	oID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Svc.Cancel(r.Context(), oID, uID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrNotCancellable):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, serialiseOrder(o, nil))
}

func authedUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	userID, found := common.UserID(r.Context())
	if !found {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	parsed, err := store.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return pgtype.UUID{}, false
	}
	return parsed, true
}

func serialiseOrder(o store.Order, items []store.OrderItem) map[string]any {
	out := map[string]any{
		"id":              store.UUIDString(o.ID),
		"type":            o.Type,
		"status":          o.Status,
		"paymentMethod":   o.PaymentMethod,
		"currency":        o.Currency,
		"subtotal":        o.Subtotal,
		"tax":             o.Tax,
		"shipping":        o.Shipping,
		"loyaltyDiscount": o.LoyaltyDiscount,
		"rounding":        o.Rounding,
		"total":           o.Total,
		"pointsRedeemed":  o.PointsRedeemed,
		"createdAt":       o.CreatedAt.Time,
	}
	if o.SplitCash.Valid || o.SplitDigital.Valid {
		out["split"] = map[string]any{
			"cash":    o.SplitCash.Float64,
			"digital": o.SplitDigital.Float64,
		}
	}
	if items != nil {
		lines := make([]map[string]any, 0, len(items))
		for _, it := range items {
			lines = append(lines, map[string]any{
				"id":            store.UUIDString(it.ID),
				"title":         it.Title,
				"packSize":      it.PackSize,
				"unitPrice":     it.UnitPrice,
				"originalPrice": it.OriginalPrice,
				"qty":           it.Qty,
				"subtotal":      it.Subtotal,
			})
		}
		out["items"] = lines
	}
	return out
}
