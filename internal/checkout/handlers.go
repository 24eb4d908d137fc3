package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/pricing"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes the checkout endpoints.
type Handler struct {
	Svc *Service
}

// Online handles POST /checkout for authenticated storefront customers.
func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	uid, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required", nil)
		return
	}
	userID, err := store.ToUUID(uid)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session", nil)
		return
	}

	var req OnlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}

	result, err := h.Svc.Online(r.Context(), userID, req)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, serialiseResult(result))
}

// InStore handles POST /admin/checkout for counter sales.
func (h *Handler) InStore(w http.ResponseWriter, r *http.Request) {
	var req InStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}

	result, err := h.Svc.InStore(r.Context(), req)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, serialiseResult(result))
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no items", nil)
	case errors.Is(err, ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	default:
		common.WriteError(w, err)
	}
}

func serialiseResult(res Result) map[string]any {
	out := map[string]any{
		"order":   serialiseOrder(res.Order),
		"pricing": serialisePricing(res.Summary),
	}
	if res.Session != nil {
		out["session"] = map[string]any{
			"provider":    res.Session.Provider,
			"sessionId":   res.Session.SessionID,
			"redirectUrl": res.Session.RedirectURL,
			"expiresAt":   res.Session.ExpiresAt,
		}
	}
	return out
}

func serialiseOrder(o store.Order) map[string]any {
	out := map[string]any{
		"id":            store.UUIDString(o.ID),
		"type":          o.Type,
		"status":        o.Status,
		"paymentMethod": o.PaymentMethod,
		"currency":      o.Currency,
		"total":         o.Total,
	}
	if o.SplitCash.Valid && o.SplitDigital.Valid {
		out["split"] = map[string]any{
			"cash":    o.SplitCash.Float64,
			"digital": o.SplitDigital.Float64,
		}
	}
	return out
}

func serialisePricing(s pricing.Summary) map[string]any {
	out := map[string]any{
		"subtotal":        s.Subtotal,
		"savings":         s.Savings,
		"gstRatePct":      s.GSTRatePct,
		"tax":             s.Tax,
		"shipping":        s.Shipping,
		"loyaltyDiscount": s.LoyaltyDiscount,
		"total":           s.Total,
	}
	if s.ShowRounding() {
		out["rounding"] = s.Rounding
	}
	return out
}
