// Package order exposes order history, cancellation and back-office status
// management on top of the persisted order lifecycle.
package order

import "github.com/orgofarm-labs/backend-orgofarm/internal/store"

// CanTransitionTo reports whether an order may move from one status to the
// next. Forward movement follows the fulfilment pipeline; cancellation is
// allowed until the parcel leaves the store.
func CanTransitionTo(current, next store.OrderStatus) bool {
	if current == next {
		return false
	}
	if next == store.OrderStatusCancelled {
		switch current {
		case store.OrderStatusPendingPayment, store.OrderStatusPaid, store.OrderStatusPacked:
			return true
		}
		return false
	}
	return rank(next) == rank(current)+1 && rank(current) >= 0
}

func rank(status store.OrderStatus) int {
	switch status {
	case store.OrderStatusPendingPayment:
		return 0
	case store.OrderStatusPaid:
		return 1
	case store.OrderStatusPacked:
		return 2
	case store.OrderStatusShipped:
		return 3
	case store.OrderStatusOutForDelivery:
		return 4
	case store.OrderStatusDelivered:
		return 5
	default:
		return -1
	}
}

// CancellableStatuses lists the states a customer can cancel from. Once an
// order is packed only back-office staff may cancel it.
func CancellableStatuses() []store.OrderStatus {
	return []store.OrderStatus{
		store.OrderStatusPendingPayment,
		store.OrderStatusPaid,
	}
}
