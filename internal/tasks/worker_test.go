package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/loyalty"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubWorkerStore struct {
	order store.Order
	user  store.User
}

func (s *stubWorkerStore) GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error) {
	return s.order, nil
}

func (s *stubWorkerStore) GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error) {
	return s.user, nil
}

type stubAwardLedger struct {
	credited int64
	entries  []store.LedgerEntry
}

func (s *stubAwardLedger) GetLoyaltyBalance(ctx context.Context, userID pgtype.UUID) (int64, error) {
	return s.credited, nil
}

func (s *stubAwardLedger) DebitPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error) {
	return 0, errors.New("not used")
}

func (s *stubAwardLedger) CreditPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error) {
	s.credited += points
	return s.credited, nil
}

func (s *stubAwardLedger) InsertLedgerEntry(ctx context.Context, e store.LedgerEntry) (store.LedgerEntry, error) {
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *stubAwardLedger) ListLedgerEntries(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.LedgerEntry, error) {
	return s.entries, nil
}

func TestHandleLoyaltyAward(t *testing.T) {
	ledger := &stubAwardLedger{}
	w := &Worker{
		Loyalty: &loyalty.Service{
			Q:      ledger,
			Policy: loyalty.Policy{PointValue: 0.10, EarnPointsPer100: 2},
			Log:    zerolog.Nop(),
		},
		Log: zerolog.Nop(),
	}
	task, err := NewLoyaltyAwardTask(LoyaltyAwardPayload{
		UserID:  "00000000-0000-0000-0000-000000000002",
		OrderID: "00000000-0000-0000-0000-0000000000aa",
		Total:   1170,
	})
	require.NoError(t, err)

	require.NoError(t, w.HandleLoyaltyAward(context.Background(), task))
	require.Equal(t, int64(22), ledger.credited)
}

func TestHandleLoyaltyAwardBadPayloadSkipsRetry(t *testing.T) {
	w := &Worker{Log: zerolog.Nop()}
	err := w.HandleLoyaltyAward(context.Background(), asynq.NewTask(TypeLoyaltyAward, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleOrderConfirmationSendsEmail(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{
		Q: &stubWorkerStore{
			order: store.Order{
				UserID: pgtype.UUID{Bytes: [16]byte{0x02}, Valid: true},
				Total:  1170,
			},
			user: store.User{Email: "meena@example.com"},
		},
		Mail: mail,
		Log:  zerolog.Nop(),
	}
	task, err := NewOrderConfirmationTask(OrderConfirmationPayload{
		OrderID: "00000000-0000-0000-0000-0000000000aa",
	})
	require.NoError(t, err)

	require.NoError(t, w.HandleOrderConfirmation(context.Background(), task))
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "meena@example.com", mail.Outbox[0].To)
	require.Contains(t, mail.Outbox[0].HTML, "1170")
}

func TestHandleLowStockAlert(t *testing.T) {
	mail := &common.InMemoryEmail{}
	w := &Worker{Mail: mail, AdminEmail: "ops@orgofarm.example", Log: zerolog.Nop()}
	task, err := NewLowStockAlertTask(LowStockAlertPayload{
		VariantID: "v1",
		Name:      "Forest Honey",
		Stock:     3,
	})
	require.NoError(t, err)

	require.NoError(t, w.HandleLowStockAlert(context.Background(), task))
	require.Len(t, mail.Outbox, 1)
	require.Contains(t, mail.Outbox[0].Subject, "Forest Honey")
}

func TestHandleLowStockAlertWithoutRecipient(t *testing.T) {
	w := &Worker{Log: zerolog.Nop()}
	task, err := NewLowStockAlertTask(LowStockAlertPayload{VariantID: "v1", Name: "Ghee", Stock: 1})
	require.NoError(t, err)
	require.NoError(t, w.HandleLowStockAlert(context.Background(), task))
}
