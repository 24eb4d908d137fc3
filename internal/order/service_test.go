package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubOrderStore struct {
	order       store.Order
	items       []store.OrderItem
	status      store.OrderStatus
	transitions []store.OrderStatus
	restocked   map[string]int32
}

func (s *stubOrderStore) GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error) {
	return s.order, nil
}

func (s *stubOrderStore) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error) {
	return s.items, nil
}

func (s *stubOrderStore) ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.Order, error) {
	return []store.Order{s.order}, nil
}

func (s *stubOrderStore) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	return 1, nil
}

func (s *stubOrderStore) ListOrders(ctx context.Context, limit, offset int) ([]store.Order, error) {
	return []store.Order{s.order}, nil
}

func (s *stubOrderStore) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, next store.OrderStatus, allowedFrom []store.OrderStatus) error {
	for _, from := range allowedFrom {
		if from == s.status {
			s.status = next
			s.order.Status = next
			s.transitions = append(s.transitions, next)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *stubOrderStore) GetOrderStatus(ctx context.Context, id pgtype.UUID) (store.OrderStatus, error) {
	return s.status, nil
}

func (s *stubOrderStore) AdjustStock(ctx context.Context, variantID pgtype.UUID, delta int32) (int32, error) {
	if s.restocked == nil {
		s.restocked = map[string]int32{}
	}
	s.restocked[store.UUIDString(variantID)] += delta
	return delta, nil
}

func newUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func TestCancelRestocksLines(t *testing.T) {
	variant := newUUID()
	user := newUUID()
	q := &stubOrderStore{
		order:  store.Order{UserID: user, Status: store.OrderStatusPaid},
		status: store.OrderStatusPaid,
		items:  []store.OrderItem{{VariantID: variant, Qty: 3}},
	}
	svc := &Service{Q: q}
	o, err := svc.Cancel(context.Background(), newUUID(), user)
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusCancelled, o.Status)
	require.EqualValues(t, 3, q.restocked[store.UUIDString(variant)])
}

func TestCancelRejectsShippedOrder(t *testing.T) {
	user := newUUID()
	q := &stubOrderStore{
		order:  store.Order{UserID: user, Status: store.OrderStatusShipped},
		status: store.OrderStatusShipped,
	}
	svc := &Service{Q: q}
	_, err := svc.Cancel(context.Background(), newUUID(), user)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelScopedToOwner(t *testing.T) {
	q := &stubOrderStore{
		order:  store.Order{UserID: newUUID(), Status: store.OrderStatusPaid},
		status: store.OrderStatusPaid,
	}
	svc := &Service{Q: q}
	_, err := svc.Cancel(context.Background(), newUUID(), newUUID())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetStatusFollowsPipeline(t *testing.T) {
	q := &stubOrderStore{
		order:  store.Order{Status: store.OrderStatusPaid},
		status: store.OrderStatusPaid,
	}
	svc := &Service{Q: q}
	o, err := svc.SetStatus(context.Background(), newUUID(), store.OrderStatusPacked)
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusPacked, o.Status)

	_, err = svc.SetStatus(context.Background(), newUUID(), store.OrderStatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
