package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type settlementStore interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, id pgtype.UUID, next store.OrderStatus, allowedFrom []store.OrderStatus) error
}

// PointAwarder grants loyalty points once an order settles. Failures are
// logged, never propagated; settlement has already happened upstream.
type PointAwarder interface {
	AwardForOrder(ctx context.Context, order store.Order)
}

// Webhook handles payment provider callbacks: signature verification, replay
// protection and order settlement.
type Webhook struct {
	Q         settlementStore
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Events    *events.Bus
	Awarder   PointAwarder
	Log       zerolog.Logger
}

// Handle processes webhook callbacks for the configured payment provider(s).
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil || h.Providers == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	providerKey := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "provider")))
	provider, ok := h.Providers[providerKey]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "PROVIDER_NOT_SUPPORTED", "unknown provider", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	result, err := provider.VerifyWebhook(r, body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "WEBHOOK_INVALID", err.Error(), nil)
		return
	}
	if !result.Valid {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}
	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:%s:%s", providerKey, common.Sha256HexBytes(body))
		ok, err := h.Replay.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !ok {
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
	}
	if result.Status != "PAID" {
		// Failed or pending notifications are acknowledged without settling.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	oID, err := store.ToUUID(result.OrderID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order reference", nil)
		return
	}
	order, err := h.Q.GetOrderByID(r.Context(), oID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if result.Amount > 0 && result.Amount != order.Total {
		common.JSONError(w, http.StatusConflict, "AMOUNT_MISMATCH",
			fmt.Sprintf("expected %d, provider reported %d", order.Total, result.Amount), nil)
		return
	}
	err = h.Q.UpdateOrderStatus(r.Context(), oID, store.OrderStatusPaid,
		[]store.OrderStatus{store.OrderStatusPendingPayment})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Already settled; webhook retries land here.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to settle order", nil)
		return
	}
	order.Status = store.OrderStatusPaid
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOrderPaid, oID, map[string]any{
			"orderId":  result.OrderID,
			"provider": providerKey,
			"total":    order.Total,
		})
	}
	if h.Awarder != nil {
		h.Awarder.AwardForOrder(r.Context(), order)
	}
	w.WriteHeader(http.StatusNoContent)
}
