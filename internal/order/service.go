package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

var (
	// ErrInvalidTransition is returned for a status change the pipeline forbids.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrNotCancellable is returned when the order has progressed too far to cancel.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

type orderStore interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.Order, error)
	CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListOrders(ctx context.Context, limit, offset int) ([]store.Order, error)
	UpdateOrderStatus(ctx context.Context, id pgtype.UUID, next store.OrderStatus, allowedFrom []store.OrderStatus) error
	GetOrderStatus(ctx context.Context, id pgtype.UUID) (store.OrderStatus, error)
	AdjustStock(ctx context.Context, variantID pgtype.UUID, delta int32) (int32, error)
}

// Service provides order history and lifecycle management.
type Service struct {
	Q      orderStore
	Events *events.Bus
}

// Get loads an order with its lines, scoped to the owning user when userID is set.
func (s *Service) Get(ctx context.Context, orderID, userID pgtype.UUID) (store.Order, []store.OrderItem, error) {
	o, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return store.Order{}, nil, err
	}
	if userID.Valid && !store.UUIDEqual(o.UserID, userID) {
		return store.Order{}, nil, store.ErrNotFound
	}
	items, err := s.Q.ListOrderItems(ctx, orderID)
	if err != nil {
		return o, nil, err
	}
	return o, items, nil
}

// ListForUser pages through a customer's order history.
func (s *Service) ListForUser(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]store.Order, int64, error) {
	orders, err := s.Q.ListOrdersByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountOrdersByUser(ctx, userID)
	if err != nil {
		return orders, 0, err
	}
	return orders, total, nil
}

// Cancel aborts an order that has not left the store and restocks its lines.
func (s *Service) Cancel(ctx context.Context, orderID, userID pgtype.UUID) (store.Order, error) {
	o, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		return store.Order{}, err
	}
	if userID.Valid && !store.UUIDEqual(o.UserID, userID) {
		return store.Order{}, store.ErrNotFound
	}
	err = s.Q.UpdateOrderStatus(ctx, orderID, store.OrderStatusCancelled, CancellableStatuses())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Order{}, ErrNotCancellable
		}
		return store.Order{}, err
	}
	o.Status = store.OrderStatusCancelled
	s.restock(ctx, orderID)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCancelled, orderID, map[string]any{
			"orderId": store.UUIDString(orderID),
		})
	}
	return o, nil
}

// SetStatus applies a back-office status change guarded by the pipeline rules.
func (s *Service) SetStatus(ctx context.Context, orderID pgtype.UUID, next store.OrderStatus) (store.Order, error) {
	current, err := s.Q.GetOrderStatus(ctx, orderID)
	if err != nil {
		return store.Order{}, err
	}
	if !CanTransitionTo(current, next) {
		return store.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
	}
	if err := s.Q.UpdateOrderStatus(ctx, orderID, next, []store.OrderStatus{current}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
		}
		return store.Order{}, err
	}
	if next == store.OrderStatusCancelled {
		s.restock(ctx, orderID)
	}
	return s.Q.GetOrderByID(ctx, orderID)
}

// restock returns cancelled lines to inventory. Failures are tolerated; stock
// corrections can be applied manually from the back office.
func (s *Service) restock(ctx context.Context, orderID pgtype.UUID) {
	items, err := s.Q.ListOrderItems(ctx, orderID)
	if err != nil {
		return
	}
	for _, it := range items {
		if it.VariantID.Valid && it.Qty > 0 {
			_, _ = s.Q.AdjustStock(ctx, it.VariantID, it.Qty)
		}
	}
}
