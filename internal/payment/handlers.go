package payment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes checkout-session creation for card orders.
type Handler struct {
	Svc *Service
}

// CreateSession opens an upstream checkout session for the order in the path.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	session, err := h.Svc.CreateSession(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusConflict, "SESSION_REJECTED", err.Error(), nil)
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]any{
		"provider":    session.Provider,
		"sessionId":   session.SessionID,
		"redirectUrl": session.RedirectURL,
		"expiresAt":   session.ExpiresAt,
	})
}
