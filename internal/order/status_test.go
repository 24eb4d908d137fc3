package order

import (
	"testing"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to store.OrderStatus
		want     bool
	}{
		{store.OrderStatusPendingPayment, store.OrderStatusPaid, true},
		{store.OrderStatusPaid, store.OrderStatusPacked, true},
		{store.OrderStatusPacked, store.OrderStatusShipped, true},
		{store.OrderStatusShipped, store.OrderStatusOutForDelivery, true},
		{store.OrderStatusOutForDelivery, store.OrderStatusDelivered, true},

		{store.OrderStatusPendingPayment, store.OrderStatusCancelled, true},
		{store.OrderStatusPaid, store.OrderStatusCancelled, true},
		{store.OrderStatusPacked, store.OrderStatusCancelled, true},

		{store.OrderStatusShipped, store.OrderStatusCancelled, false},
		{store.OrderStatusDelivered, store.OrderStatusCancelled, false},
		{store.OrderStatusPendingPayment, store.OrderStatusPacked, false},
		{store.OrderStatusPaid, store.OrderStatusDelivered, false},
		{store.OrderStatusDelivered, store.OrderStatusPaid, false},
		{store.OrderStatusCancelled, store.OrderStatusPaid, false},
		{store.OrderStatusPaid, store.OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := CanTransitionTo(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCustomerCancelStopsAtPacked(t *testing.T) {
	allowed := map[store.OrderStatus]bool{}
	for _, s := range CancellableStatuses() {
		allowed[s] = true
	}
	if !allowed[store.OrderStatusPendingPayment] || !allowed[store.OrderStatusPaid] {
		t.Fatalf("pending and paid orders must be customer-cancellable, got %v", CancellableStatuses())
	}
	for _, s := range []store.OrderStatus{
		store.OrderStatusPacked,
		store.OrderStatusShipped,
		store.OrderStatusOutForDelivery,
		store.OrderStatusDelivered,
		store.OrderStatusCancelled,
	} {
		if allowed[s] {
			t.Errorf("customers must not cancel a %s order", s)
		}
	}
}
