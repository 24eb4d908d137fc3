package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes profile and address endpoints.
type Handler struct {
	Svc *Service
}

// GetProfile handles GET /me/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	u, err := h.Svc.Profile(r.Context(), userID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseUser(u))
}

// UpdateProfile handles PUT /me/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	u, err := h.Svc.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeUserError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseUser(u))
}

// AddAddress handles POST /me/addresses.
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	a, err := h.Svc.AddAddress(r.Context(), userID, req)
	if err != nil {
		writeUserError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, serialiseAddress(a))
}

// ListAddresses handles GET /me/addresses.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	addresses, err := h.Svc.Addresses(r.Context(), userID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, serialiseAddress(a))
	}
	common.JSONData(w, http.StatusOK, out)
}

// DeleteAddress handles DELETE /me/addresses/{addressID}.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	addressID, err := store.ToUUID(chi.URLParam(r, "addressID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid address id", nil)
		return
	}
	if err := h.Svc.RemoveAddress(r.Context(), userID, addressID); err != nil {
		writeUserError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func authedUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	uid, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required", nil)
		return pgtype.UUID{}, false
	}
	id, err := store.ToUUID(uid)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session", nil)
		return pgtype.UUID{}, false
	}
	return id, true
}

func writeUserError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	common.WriteError(w, err)
}

func serialiseUser(u store.User) map[string]any {
	out := map[string]any{
		"id":    store.UUIDString(u.ID),
		"email": u.Email,
		"role":  u.Role,
	}
	if u.Name.Valid {
		out["name"] = u.Name.String
	}
	if u.Phone.Valid {
		out["phone"] = u.Phone.String
	}
	return out
}

func serialiseAddress(a store.Address) map[string]any {
	out := map[string]any{
		"id":          store.UUIDString(a.ID),
		"state":       a.State,
		"city":        a.City,
		"addressLine": a.AddressLine,
		"isDefault":   a.IsDefault,
	}
	if a.Label.Valid {
		out["label"] = a.Label.String
	}
	if a.ReceiverName.Valid {
		out["receiverName"] = a.ReceiverName.String
	}
	if a.Phone.Valid {
		out["phone"] = a.Phone.String
	}
	if a.PostalCode.Valid {
		out["postalCode"] = a.PostalCode.String
	}
	return out
}
