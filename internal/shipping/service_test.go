package shipping

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubShipmentStore struct {
	order          store.Order
	orderErr       error
	shipment       store.Shipment
	shipmentErr    error
	created        *store.Shipment
	events         []store.ShipmentEvent
	statusUpdates  []store.OrderStatus
	currentStatus  store.OrderStatus
	updateOrderErr error
}

func (s *stubShipmentStore) GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error) {
	return s.order, s.orderErr
}

func (s *stubShipmentStore) GetShipmentByOrder(ctx context.Context, orderID pgtype.UUID) (store.Shipment, error) {
	return s.shipment, s.shipmentErr
}

func (s *stubShipmentStore) CreateShipment(ctx context.Context, orderID pgtype.UUID, courier, tracking pgtype.Text) (store.Shipment, error) {
	sh := store.Shipment{OrderID: orderID, Courier: courier, TrackingNumber: tracking, Status: store.ShipmentStatusPending}
	s.created = &sh
	return sh, nil
}

func (s *stubShipmentStore) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, next store.OrderStatus, allowedFrom []store.OrderStatus) error {
	if s.updateOrderErr != nil {
		return s.updateOrderErr
	}
	s.statusUpdates = append(s.statusUpdates, next)
	s.currentStatus = next
	return nil
}

func (s *stubShipmentStore) GetOrderStatus(ctx context.Context, id pgtype.UUID) (store.OrderStatus, error) {
	return s.currentStatus, nil
}

func (s *stubShipmentStore) InsertShipmentEvent(ctx context.Context, e store.ShipmentEvent) (store.ShipmentEvent, error) {
	s.events = append(s.events, e)
	return e, nil
}

func (s *stubShipmentStore) UpdateShipmentStatus(ctx context.Context, id pgtype.UUID, status store.ShipmentStatus, at pgtype.Timestamptz) error {
	s.shipment.Status = status
	return nil
}

func (s *stubShipmentStore) ListShipmentEvents(ctx context.Context, shipmentID pgtype.UUID) ([]store.ShipmentEvent, error) {
	return s.events, nil
}

func (s *stubShipmentStore) GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error) {
	return store.User{Email: "shopper@example.com"}, nil
}

func TestCreateRequiresPaidOrder(t *testing.T) {
	q := &stubShipmentStore{
		order:       store.Order{Type: store.OrderTypeOnline, Status: store.OrderStatusPendingPayment},
		shipmentErr: store.ErrNotFound,
	}
	svc := &Service{Q: q}
	_, err := svc.Create(context.Background(), pgtype.UUID{}, "bluedart", "BD123")
	require.ErrorIs(t, err, ErrOrderNotEligible)
}

func TestCreateRejectsInStoreOrders(t *testing.T) {
	q := &stubShipmentStore{
		order: store.Order{Type: store.OrderTypeInStore, Status: store.OrderStatusPaid},
	}
	svc := &Service{Q: q}
	_, err := svc.Create(context.Background(), pgtype.UUID{}, "bluedart", "BD123")
	require.ErrorIs(t, err, ErrInStoreOrder)
}

func TestCreateRejectsDuplicateShipment(t *testing.T) {
	q := &stubShipmentStore{
		order:    store.Order{Type: store.OrderTypeOnline, Status: store.OrderStatusPaid},
		shipment: store.Shipment{Status: store.ShipmentStatusPending},
	}
	svc := &Service{Q: q}
	_, err := svc.Create(context.Background(), pgtype.UUID{}, "bluedart", "BD123")
	require.ErrorIs(t, err, ErrShipmentAlreadyExists)
}

func TestCreateMovesOrderToPacked(t *testing.T) {
	q := &stubShipmentStore{
		order:         store.Order{Type: store.OrderTypeOnline, Status: store.OrderStatusPaid},
		shipmentErr:   store.ErrNotFound,
		currentStatus: store.OrderStatusPaid,
	}
	svc := &Service{Q: q}
	shipment, err := svc.Create(context.Background(), pgtype.UUID{}, "bluedart", "BD123")
	require.NoError(t, err)
	require.Equal(t, store.ShipmentStatusPending, shipment.Status)
	require.Contains(t, q.statusUpdates, store.OrderStatusPacked)
}

func TestAppendEventRejectsBackwardTransition(t *testing.T) {
	q := &stubShipmentStore{
		shipment: store.Shipment{Status: store.ShipmentStatusDelivered},
	}
	svc := &Service{Q: q}
	_, _, err := svc.AppendEvent(context.Background(), pgtype.UUID{}, store.ShipmentStatusShipped, nil, nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidShipmentTransition)
}

func TestAppendEventSyncsOrderStatus(t *testing.T) {
	q := &stubShipmentStore{
		shipment:      store.Shipment{Status: store.ShipmentStatusShipped},
		order:         store.Order{Type: store.OrderTypeOnline, Status: store.OrderStatusShipped},
		currentStatus: store.OrderStatusShipped,
	}
	svc := &Service{Q: q}
	_, shipment, err := svc.AppendEvent(context.Background(), pgtype.UUID{}, store.ShipmentStatusDelivered, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, store.ShipmentStatusDelivered, shipment.Status)
	require.Contains(t, q.statusUpdates, store.OrderStatusDelivered)
	require.Len(t, q.events, 1)
}

func TestAppendEventSkipsRegressiveOrderSync(t *testing.T) {
	q := &stubShipmentStore{
		shipment:      store.Shipment{Status: store.ShipmentStatusShipped},
		currentStatus: store.OrderStatusDelivered,
	}
	svc := &Service{Q: q}
	_, _, err := svc.AppendEvent(context.Background(), pgtype.UUID{}, store.ShipmentStatusOutForDelivery, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, q.statusUpdates)
}

func TestAllowedShipmentTransitions(t *testing.T) {
	cases := []struct {
		from, to store.ShipmentStatus
		want     bool
	}{
		{store.ShipmentStatusPending, store.ShipmentStatusPicked, true},
		{store.ShipmentStatusPending, store.ShipmentStatusShipped, true},
		{store.ShipmentStatusPicked, store.ShipmentStatusShipped, true},
		{store.ShipmentStatusShipped, store.ShipmentStatusDelivered, true},
		{store.ShipmentStatusShipped, store.ShipmentStatusOutForDelivery, true},
		{store.ShipmentStatusOutForDelivery, store.ShipmentStatusDelivered, true},
		{store.ShipmentStatusDelivered, store.ShipmentStatusShipped, false},
		{store.ShipmentStatusShipped, store.ShipmentStatusPending, false},
		{store.ShipmentStatusPicked, store.ShipmentStatusDelivered, false},
	}
	for _, tc := range cases {
		if got := allowedShipmentTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("allowedShipmentTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMapExternalToStatus(t *testing.T) {
	require.Equal(t, store.ShipmentStatusShipped, MapExternalToStatus("in_transit"))
	require.Equal(t, store.ShipmentStatusDelivered, MapExternalToStatus("DELIVERED"))
	require.Equal(t, store.ShipmentStatusOutForDelivery, MapExternalToStatus("out_for_delivery"))
	require.Equal(t, store.ShipmentStatusPending, MapExternalToStatus("lost-in-space"))
}
