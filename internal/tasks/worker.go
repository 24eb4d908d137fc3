package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/loyalty"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type workerStore interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
}

// Worker executes queued tasks in the worker binary.
type Worker struct {
	Loyalty    *loyalty.Service
	Q          workerStore
	Mail       common.EmailSender
	AdminEmail string
	Log        zerolog.Logger
}

// Register attaches every handler to the asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeLoyaltyAward, w.HandleLoyaltyAward)
	mux.HandleFunc(TypeOrderConfirmation, w.HandleOrderConfirmation)
	mux.HandleFunc(TypeLowStockAlert, w.HandleLowStockAlert)
}

// HandleLoyaltyAward credits earn-on-purchase points for a settled order.
func (w *Worker) HandleLoyaltyAward(ctx context.Context, t *asynq.Task) error {
	var p LoyaltyAwardPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal loyalty award: %w: %w", err, asynq.SkipRetry)
	}
	userID, err := store.ToUUID(p.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w: %w", err, asynq.SkipRetry)
	}
	orderID, err := store.ToUUID(p.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w: %w", err, asynq.SkipRetry)
	}
	points, err := w.Loyalty.Award(ctx, userID, orderID, p.Total)
	if err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	w.Log.Info().Str("order_id", p.OrderID).Int64("points", points).Msg("loyalty points awarded")
	return nil
}

// HandleOrderConfirmation emails the shopper their order summary.
func (w *Worker) HandleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal order confirmation: %w: %w", err, asynq.SkipRetry)
	}
	orderID, err := store.ToUUID(p.OrderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w: %w", err, asynq.SkipRetry)
	}
	order, err := w.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if !order.UserID.Valid || w.Mail == nil {
		return nil
	}
	u, err := w.Q.GetUserByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	subject := fmt.Sprintf("OrgoFarm order %s confirmed", p.OrderID)
	body := fmt.Sprintf("<p>Thanks for shopping with OrgoFarm.</p><p>Order total: ₹%d. We will let you know when it ships.</p>", order.Total)
	if err := w.Mail.Send(u.Email, subject, body); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

// HandleLowStockAlert notifies the back-office that a variant ran low.
func (w *Worker) HandleLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var p LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal low stock alert: %w: %w", err, asynq.SkipRetry)
	}
	if w.Mail == nil || w.AdminEmail == "" {
		w.Log.Warn().Str("variant_id", p.VariantID).Int32("stock", p.Stock).
			Msg("low stock but no alert recipient configured")
		return nil
	}
	subject := fmt.Sprintf("Low stock: %s", p.Name)
	body := fmt.Sprintf("<p>%s (variant %s) is down to %d units. Consider raising a purchase order.</p>", p.Name, p.VariantID, p.Stock)
	if err := w.Mail.Send(w.AdminEmail, subject, body); err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}
	return nil
}
