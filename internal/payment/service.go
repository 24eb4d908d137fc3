package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orgofarm-labs/backend-orgofarm/internal/obs"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type orderReader interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
}

// Service opens checkout sessions for card orders.
type Service struct {
	Q               orderReader
	Provider        Provider
	SessionTTL      time.Duration
	Currency        string
	CallbackBaseURL string
}

// CreateSession opens an upstream checkout session for a pending card order.
func (s *Service) CreateSession(ctx context.Context, orderID string) (SessionResponse, error) {
	var zero SessionResponse
	if s == nil || s.Q == nil || s.Provider == nil {
		return zero, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateSession")
	defer span.End()

	providerName := inferProviderName(s.Provider)
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", providerName),
			attribute.String("payment.session.result", result),
		)
		if obs.PaymentSessionTotal != nil {
			obs.PaymentSessionTotal.WithLabelValues(providerName, result).Inc()
		}
	}()

	oID, err := store.ToUUID(orderID)
	if err != nil {
		return zero, fmt.Errorf("invalid order id: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", orderID))
	order, err := s.Q.GetOrderByID(ctx, oID)
	if err != nil {
		return zero, err
	}
	if order.Status != store.OrderStatusPendingPayment {
		return zero, fmt.Errorf("order status %s does not allow a checkout session", order.Status)
	}
	if order.PaymentMethod != string(MethodCard) {
		return zero, fmt.Errorf("payment method %s does not use a checkout session", order.PaymentMethod)
	}
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	session, err := s.Provider.CreateSession(ctx, SessionRequest{
		OrderID:         orderID,
		Amount:          order.Total,
		Currency:        s.Currency,
		ExpiresAtSec:    int(ttl.Seconds()),
		CallbackBaseURL: s.CallbackBaseURL,
	})
	if err != nil {
		return zero, err
	}
	result = "success"
	return session, nil
}

func inferProviderName(p Provider) string {
	switch p.(type) {
	case Razorpay, *Razorpay:
		return "razorpay"
	default:
		return "unknown"
	}
}
