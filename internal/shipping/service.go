package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

var (
	// ErrShipmentAlreadyExists is returned when a shipment has been created previously.
	ErrShipmentAlreadyExists = errors.New("shipment already exists for order")
	// ErrOrderNotEligible is returned when the order cannot be transitioned into a shippable state.
	ErrOrderNotEligible = errors.New("order status does not allow creating a shipment")
	// ErrInvalidShipmentTransition is returned when a status change would break the state machine.
	ErrInvalidShipmentTransition = errors.New("invalid shipment status transition")
	// ErrInStoreOrder is returned when a shipment is requested for a walk-in sale.
	ErrInStoreOrder = errors.New("in-store orders do not ship")
)

type shipmentStore interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	GetShipmentByOrder(ctx context.Context, orderID pgtype.UUID) (store.Shipment, error)
	CreateShipment(ctx context.Context, orderID pgtype.UUID, courier, tracking pgtype.Text) (store.Shipment, error)
	UpdateOrderStatus(ctx context.Context, id pgtype.UUID, next store.OrderStatus, allowedFrom []store.OrderStatus) error
	GetOrderStatus(ctx context.Context, id pgtype.UUID) (store.OrderStatus, error)
	InsertShipmentEvent(ctx context.Context, e store.ShipmentEvent) (store.ShipmentEvent, error)
	UpdateShipmentStatus(ctx context.Context, id pgtype.UUID, status store.ShipmentStatus, at pgtype.Timestamptz) error
	ListShipmentEvents(ctx context.Context, shipmentID pgtype.UUID) ([]store.ShipmentEvent, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
}

// Service coordinates shipment creation, tracking updates and customer notifications.
type Service struct {
	Q                      shipmentStore
	Provider               Provider
	Mail                   common.EmailSender
	NotifyOnShipped        bool
	NotifyOnOutForDelivery bool
	NotifyOnDelivered      bool
	Events                 *events.Bus
}

// Create initialises a shipment for a paid online order and moves it to PACKED.
func (s *Service) Create(ctx context.Context, orderID pgtype.UUID, courier, tracking string) (store.Shipment, error) {
	if s.Q == nil {
		return store.Shipment{}, errors.New("shipment store not configured")
	}
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return store.Shipment{}, err
	}
	if order.Type == store.OrderTypeInStore {
		return store.Shipment{}, ErrInStoreOrder
	}
	if order.Status != store.OrderStatusPaid && order.Status != store.OrderStatusPacked {
		return store.Shipment{}, ErrOrderNotEligible
	}
	if _, err := s.Q.GetShipmentByOrder(ctx, orderID); err == nil {
		return store.Shipment{}, ErrShipmentAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Shipment{}, err
	}
	shipment, err := s.Q.CreateShipment(ctx, orderID, store.Text(courier), store.Text(tracking))
	if err != nil {
		return store.Shipment{}, err
	}
	err = s.Q.UpdateOrderStatus(ctx, orderID, store.OrderStatusPacked,
		[]store.OrderStatus{store.OrderStatusPaid})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return shipment, err
	}
	return shipment, nil
}

// AppendEvent records a tracking event, advances the shipment state machine and
// synchronises the order status when the shipment moves forward.
func (s *Service) AppendEvent(ctx context.Context, orderID pgtype.UUID, status store.ShipmentStatus, description, location *string, occurredAt *time.Time, payload []byte) (store.ShipmentEvent, store.Shipment, error) {
	if s.Q == nil {
		return store.ShipmentEvent{}, store.Shipment{}, errors.New("shipment store not configured")
	}
	shipment, err := s.Q.GetShipmentByOrder(ctx, orderID)
	if err != nil {
		return store.ShipmentEvent{}, store.Shipment{}, err
	}
	if !allowedShipmentTransition(shipment.Status, status) {
		return store.ShipmentEvent{}, store.Shipment{}, fmt.Errorf("%w: %s to %s",
			ErrInvalidShipmentTransition, shipment.Status, status)
	}
	event, err := s.Q.InsertShipmentEvent(ctx, store.ShipmentEvent{
		ShipmentID:  shipment.ID,
		Status:      status,
		Description: optionalText(description),
		Location:    optionalText(location),
		OccurredAt:  optionalTime(occurredAt),
		RawPayload:  payload,
	})
	if err != nil {
		return store.ShipmentEvent{}, store.Shipment{}, err
	}
	if err := s.Q.UpdateShipmentStatus(ctx, shipment.ID, status, event.OccurredAt); err != nil {
		return event, shipment, err
	}
	shipment.Status = status
	shipment.LastEventAt = event.OccurredAt
	if err := s.syncOrderStatus(ctx, orderID, status); err != nil {
		return event, shipment, err
	}
	s.notify(ctx, orderID, status)
	s.emit(ctx, orderID, shipment.ID, status, payload)
	return event, shipment, nil
}

// Timeline returns a shipment and its event history for an order.
func (s *Service) Timeline(ctx context.Context, orderID pgtype.UUID) (store.Shipment, []store.ShipmentEvent, error) {
	shipment, err := s.Q.GetShipmentByOrder(ctx, orderID)
	if err != nil {
		return store.Shipment{}, nil, err
	}
	history, err := s.Q.ListShipmentEvents(ctx, shipment.ID)
	if err != nil {
		return shipment, nil, err
	}
	return shipment, history, nil
}

// Refresh polls the configured courier provider and appends any events newer
// than the shipment's last recorded one.
func (s *Service) Refresh(ctx context.Context, orderID pgtype.UUID) (int, error) {
	if s.Provider == nil {
		return 0, errors.New("tracking provider not configured")
	}
	shipment, err := s.Q.GetShipmentByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	remote, err := s.Provider.Track(ctx, TrackReq{
		Courier:        shipment.Courier.String,
		TrackingNumber: shipment.TrackingNumber.String,
	})
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, ev := range remote {
		status := store.ShipmentStatus(ev.Status)
		if !allowedShipmentTransition(shipment.Status, status) || status == shipment.Status {
			continue
		}
		at := time.Unix(ev.OccurredAt, 0)
		if shipment.LastEventAt.Valid && !at.After(shipment.LastEventAt.Time) {
			continue
		}
		desc, loc := ev.Description, ev.Location
		if _, updated, err := s.AppendEvent(ctx, orderID, status, &desc, &loc, &at, nil); err == nil {
			shipment = updated
			applied++
		}
	}
	return applied, nil
}

func (s *Service) syncOrderStatus(ctx context.Context, orderID pgtype.UUID, status store.ShipmentStatus) error {
	target, ok := shipmentToOrderStatus(status)
	if !ok {
		return nil
	}
	current, err := s.Q.GetOrderStatus(ctx, orderID)
	if err != nil {
		return err
	}
	if orderStatusRank(current) >= orderStatusRank(target) {
		return nil
	}
	err = s.Q.UpdateOrderStatus(ctx, orderID, target, []store.OrderStatus{
		store.OrderStatusPaid, store.OrderStatusPacked,
		store.OrderStatusShipped, store.OrderStatusOutForDelivery,
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) notify(ctx context.Context, orderID pgtype.UUID, status store.ShipmentStatus) {
	if s.Mail == nil {
		return
	}
	switch status {
	case store.ShipmentStatusShipped:
		if !s.NotifyOnShipped {
			return
		}
	case store.ShipmentStatusOutForDelivery:
		if !s.NotifyOnOutForDelivery {
			return
		}
	case store.ShipmentStatusDelivered:
		if !s.NotifyOnDelivered {
			return
		}
	default:
		return
	}
	order, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil || !order.UserID.Valid {
		return
	}
	user, err := s.Q.GetUserByID(ctx, order.UserID)
	if err != nil {
		return
	}
	subject, body := notificationContent(status)
	_ = s.Mail.Send(user.Email, subject, body)
}

func (s *Service) emit(ctx context.Context, orderID, shipmentID pgtype.UUID, status store.ShipmentStatus, raw []byte) {
	if s.Events == nil {
		return
	}
	topic, ok := shipmentTopic(status)
	if !ok {
		return
	}
	data := map[string]any{
		"orderId":    store.UUIDString(orderID),
		"shipmentId": store.UUIDString(shipmentID),
		"status":     string(status),
	}
	if len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			data["payload"] = parsed
		}
	}
	_, _ = s.Events.Emit(ctx, topic, shipmentID, data)
}

func notificationContent(status store.ShipmentStatus) (string, string) {
	switch status {
	case store.ShipmentStatusShipped:
		return "Your order is on its way", "Your OrgoFarm order has been shipped."
	case store.ShipmentStatusOutForDelivery:
		return "Out for delivery", "Your OrgoFarm order is out for delivery today."
	case store.ShipmentStatusDelivered:
		return "Order delivered", "Your OrgoFarm order has been delivered. Enjoy!"
	default:
		return "", ""
	}
}

func optionalText(value *string) pgtype.Text {
	if value == nil || *value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *value, Valid: true}
}

func optionalTime(value *time.Time) pgtype.Timestamptz {
	if value == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *value, Valid: true}
}
