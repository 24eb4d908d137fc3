package shipping

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Handler exposes HTTP endpoints for shipping quotes, shipment creation and tracking.
type Handler struct {
	Svc       *Service
	Estimator *Estimator
	Q         *store.Store
}

type quoteRequest struct {
	State string      `json:"state"`
	City  string      `json:"city"`
	Items []quoteItem `json:"items"`
}

type quoteItem struct {
	PackSize string `json:"packSize"`
	Qty      int32  `json:"qty"`
}

// Quote prices a delivery to a destination without placing an order.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{PackSize: it.PackSize, Qty: it.Qty})
	}
	quote, err := h.Estimator.Estimate(r.Context(), Destination{State: req.State, City: req.City}, items)
	if err != nil {
		if errors.Is(err, ErrDestinationIncomplete) {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute quote", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"band":      quote.Band,
		"weightKg":  quote.WeightKg,
		"ratePerKg": quote.RatePerKg,
		"cost":      quote.Cost,
	})
}

// GetByOrder returns shipment metadata and tracking events for the authenticated user.
func (h *Handler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	oID, err := store.ToUUID(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	uID, err := store.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	order, err := h.Q.GetOrderByID(r.Context(), oID)
	if err != nil || !store.UUIDEqual(order.UserID, uID) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	shipment, history, err := h.Svc.Timeline(r.Context(), oID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "shipment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load shipment", nil)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseShipment(shipment, history))
}

// Track looks a shipment up by its courier tracking number. The endpoint is
// public, so the payload omits the order reference.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	tracking := chi.URLParam(r, "trackingNumber")
	if tracking == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "tracking number required", nil)
		return
	}
	shipment, err := h.Q.GetShipmentByTracking(r.Context(), tracking)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "shipment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load shipment", nil)
		return
	}
	history, err := h.Q.ListShipmentEvents(r.Context(), shipment.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load tracking events", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"trackingNumber": nullableText(shipment.TrackingNumber),
		"courier":        nullableText(shipment.Courier),
		"status":         shipment.Status,
		"lastEventAt":    nullableTime(shipment.LastEventAt),
		"events":         serialiseEvents(history),
	})
}

type createShipmentRequest struct {
	Courier        string `json:"courier"`
	TrackingNumber string `json:"trackingNumber"`
}

// AdminCreate registers courier and tracking data for a paid order.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	oID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	shipment, err := h.Svc.Create(r.Context(), oID, req.Courier, req.TrackingNumber)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotEligible), errors.Is(err, ErrInStoreOrder):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
		case errors.Is(err, ErrShipmentAlreadyExists):
			common.JSONError(w, http.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create shipment", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": serialiseShipment(shipment, nil),
	})
}

type appendEventRequest struct {
	Status      string     `json:"status"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

// AdminAppendEvent records a manual tracking update for an order's shipment.
func (h *Handler) AdminAppendEvent(w http.ResponseWriter, r *http.Request) {
	oID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req appendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	event, shipment, err := h.Svc.AppendEvent(r.Context(), oID, store.ShipmentStatus(req.Status),
		req.Description, req.Location, req.OccurredAt, nil)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidShipmentTransition):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
		case errors.Is(err, store.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "shipment not found", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to record event", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"eventId":  store.UUIDString(event.ID),
		"status":   shipment.Status,
		"orderId":  store.UUIDString(shipment.OrderID),
		"recorded": nullableTime(event.OccurredAt),
	})
}

func serialiseShipment(s store.Shipment, history []store.ShipmentEvent) map[string]any {
	return map[string]any{
		"id":             store.UUIDString(s.ID),
		"orderId":        store.UUIDString(s.OrderID),
		"status":         s.Status,
		"courier":        nullableText(s.Courier),
		"trackingNumber": nullableText(s.TrackingNumber),
		"lastEventAt":    nullableTime(s.LastEventAt),
		"events":         serialiseEvents(history),
	}
}

func serialiseEvents(history []store.ShipmentEvent) []map[string]any {
	result := make([]map[string]any, 0, len(history))
	for _, ev := range history {
		result = append(result, map[string]any{
			"id":          store.UUIDString(ev.ID),
			"status":      ev.Status,
			"description": nullableText(ev.Description),
			"location":    nullableText(ev.Location),
			"occurredAt":  nullableTime(ev.OccurredAt),
		})
	}
	return result
}

func nullableText(v pgtype.Text) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableTime(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
