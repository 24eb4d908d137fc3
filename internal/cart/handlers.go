package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// AnonIDHeader carries the anonymous cart owner token for guests.
const AnonIDHeader = "X-Anon-ID"

// Handler exposes cart endpoints for shoppers and guests.
type Handler struct {
	Svc *Service
}

func (h *Handler) owner(r *http.Request) (pgtype.UUID, pgtype.Text) {
	var userID pgtype.UUID
	if id, ok := common.UserID(r.Context()); ok {
		if parsed, err := store.ToUUID(id); err == nil {
			userID = parsed
		}
	}
	var anonID pgtype.Text
	if anon := r.Header.Get(AnonIDHeader); anon != "" {
		anonID = pgtype.Text{String: anon, Valid: true}
	}
	return userID, anonID
}

// Get resolves the caller's cart and returns it with the pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, anonID := h.owner(r)
	if !userID.Valid && !anonID.Valid {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "sign in or send "+AnonIDHeader, nil)
		return
	}
	c, err := h.Svc.Resolve(r.Context(), userID, anonID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve cart", nil)
		return
	}
	view, err := h.Svc.Get(r.Context(), c.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseView(view))
}

type addItemRequest struct {
	VariantID string `json:"variantId"`
	Qty       int32  `json:"qty"`
}

// AddItem puts a variant in the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, anonID := h.owner(r)
	if !userID.Valid && !anonID.Valid {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "sign in or send "+AnonIDHeader, nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	variantID, err := store.ToUUID(req.VariantID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid variant id", nil)
		return
	}
	c, err := h.Svc.Resolve(r.Context(), userID, anonID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve cart", nil)
		return
	}
	if _, err := h.Svc.AddItem(r.Context(), c.ID, variantID, req.Qty); err != nil {
		switch {
		case errors.Is(err, ErrOutOfStock):
			common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error(), nil)
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "variant not found", nil)
		default:
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		return
	}
	view, err := h.Svc.Get(r.Context(), c.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, serialiseView(view))
}

type updateQtyRequest struct {
	Qty int32 `json:"qty"`
}

// UpdateItem changes a line's quantity; zero removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, itemID, ok := h.cartAndItem(w, r)
	if !ok {
		return
	}
	var req updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), cartID, itemID, req.Qty); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update item", nil)
		return
	}
	view, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseView(view))
}

// RemoveItem deletes a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, itemID, ok := h.cartAndItem(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to remove item", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cartAndItem(w http.ResponseWriter, r *http.Request) (cartID, itemID pgtype.UUID, ok bool) {
	userID, anonID := h.owner(r)
	if !userID.Valid && !anonID.Valid {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "sign in or send "+AnonIDHeader, nil)
		return cartID, itemID, false
	}
	c, err := h.Svc.Resolve(r.Context(), userID, anonID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve cart", nil)
		return cartID, itemID, false
	}
	itemID, err = store.ToUUID(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return cartID, itemID, false
	}
	return c.ID, itemID, true
}

func serialiseView(v View) map[string]any {
	items := make([]map[string]any, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, map[string]any{
			"id":            store.UUIDString(it.ID),
			"variantId":     store.UUIDString(it.VariantID),
			"title":         it.Title,
			"packSize":      it.PackSize,
			"unitPrice":     it.UnitPrice,
			"originalPrice": it.OriginalPrice,
			"qty":           it.Qty,
			"lineTotal":     float64(it.Qty) * it.UnitPrice,
		})
	}
	return map[string]any{
		"id":          store.UUIDString(v.Cart.ID),
		"items":       items,
		"subtotal":    v.Subtotal,
		"savings":     v.Savings,
		"taxEstimate": v.TaxEst,
	}
}
