package loyalty

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/obs"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type ledgerStore interface {
	GetLoyaltyBalance(ctx context.Context, userID pgtype.UUID) (int64, error)
	DebitPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error)
	CreditPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error)
	InsertLedgerEntry(ctx context.Context, e store.LedgerEntry) (store.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.LedgerEntry, error)
}

// Service manages point balances against the ledger store.
type Service struct {
	Q      ledgerStore
	Policy Policy
	Events *events.Bus
	Log    zerolog.Logger
}

// Balance reads the user's current point balance.
func (s *Service) Balance(ctx context.Context, userID pgtype.UUID) (int64, error) {
	return s.Q.GetLoyaltyBalance(ctx, userID)
}

// Preview resolves what a redemption request would be worth without touching
// the ledger. Checkout uses this path to price the order.
func (s *Service) Preview(ctx context.Context, userID pgtype.UUID, requested int64, subtotal float64) (Application, error) {
	if requested <= 0 {
		return Application{}, nil
	}
	balance, err := s.Q.GetLoyaltyBalance(ctx, userID)
	if err != nil {
		return Application{}, err
	}
	return s.Policy.Apply(requested, balance, subtotal)
}

// Redeem debits points and writes the ledger entry. Callers treat failure as
// non-fatal once the order is placed; the order keeps its discounted total.
func (s *Service) Redeem(ctx context.Context, userID, orderID pgtype.UUID, points int64) error {
	if points <= 0 {
		return nil
	}
	_, err := s.Q.DebitPoints(ctx, userID, points)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = ErrInsufficientPoints
		}
		s.observeRedeem("failure")
		return err
	}
	if _, err := s.Q.InsertLedgerEntry(ctx, store.LedgerEntry{
		UserID:  userID,
		OrderID: orderID,
		Delta:   -points,
		Reason:  store.LedgerReasonRedeem,
	}); err != nil {
		s.observeRedeem("ledger_failure")
		return err
	}
	s.observeRedeem("success")
	s.emit(ctx, events.TopicPointsRedeemed, userID, orderID, -points)
	return nil
}

// Award credits earned points for a completed order.
func (s *Service) Award(ctx context.Context, userID, orderID pgtype.UUID, total int64) (int64, error) {
	points := s.Policy.Earn(total)
	if points <= 0 {
		return 0, nil
	}
	if _, err := s.Q.CreditPoints(ctx, userID, points); err != nil {
		s.observeAward("failure")
		return 0, err
	}
	if _, err := s.Q.InsertLedgerEntry(ctx, store.LedgerEntry{
		UserID:  userID,
		OrderID: orderID,
		Delta:   points,
		Reason:  store.LedgerReasonAward,
	}); err != nil {
		s.observeAward("ledger_failure")
		return points, err
	}
	s.observeAward("success")
	s.emit(ctx, events.TopicPointsAwarded, userID, orderID, points)
	return points, nil
}

// Adjust applies a manual back-office correction to a balance.
func (s *Service) Adjust(ctx context.Context, userID pgtype.UUID, delta int64) (int64, error) {
	var balance int64
	var err error
	if delta >= 0 {
		balance, err = s.Q.CreditPoints(ctx, userID, delta)
	} else {
		balance, err = s.Q.DebitPoints(ctx, userID, -delta)
		if errors.Is(err, store.ErrNotFound) {
			err = ErrInsufficientPoints
		}
	}
	if err != nil {
		return 0, err
	}
	_, err = s.Q.InsertLedgerEntry(ctx, store.LedgerEntry{
		UserID: userID,
		Delta:  delta,
		Reason: store.LedgerReasonAdjust,
	})
	return balance, err
}

// Ledger returns the user's point history.
func (s *Service) Ledger(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.LedgerEntry, error) {
	return s.Q.ListLedgerEntries(ctx, userID, limit, offset)
}

func (s *Service) observeRedeem(result string) {
	if obs.LoyaltyRedeemTotal != nil {
		obs.LoyaltyRedeemTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) observeAward(result string) {
	if obs.LoyaltyAwardTotal != nil {
		obs.LoyaltyAwardTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) emit(ctx context.Context, topic string, userID, orderID pgtype.UUID, delta int64) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, topic, orderID, map[string]any{
		"userId":  store.UUIDString(userID),
		"orderId": store.UUIDString(orderID),
		"delta":   delta,
	})
}
