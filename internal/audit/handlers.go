package audit

import (
	"encoding/json"
	"net/http"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes the admin audit-log dashboard endpoint.
type Handler struct {
	Rec *Recorder
}

// List handles GET /admin/audit-logs with optional ?entity= filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50, 200)
	entityType := r.URL.Query().Get("entity")

	logs, total, err := h.Rec.List(r.Context(), entityType, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(logs))
	for _, a := range logs {
		entry := map[string]any{
			"id":         store.UUIDString(a.ID),
			"action":     a.Action,
			"entityType": a.EntityType,
			"createdAt":  a.CreatedAt.Time,
		}
		if a.ActorID.Valid {
			entry["actorId"] = store.UUIDString(a.ActorID)
		}
		if a.ActorRole.Valid {
			entry["actorRole"] = a.ActorRole.String
		}
		if a.EntityID.Valid {
			entry["entityId"] = a.EntityID.String
		}
		if a.IP.Valid {
			entry["ip"] = a.IP.String
		}
		if len(a.Detail) > 0 {
			entry["detail"] = json.RawMessage(a.Detail)
		}
		out = append(out, entry)
	}

	common.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}
