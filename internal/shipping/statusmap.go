package shipping

import (
	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

func allowedShipmentTransition(current, next store.ShipmentStatus) bool {
	if current == next {
		return true
	}
	switch current {
	case store.ShipmentStatusPending:
		return next == store.ShipmentStatusPicked || next == store.ShipmentStatusShipped
	case store.ShipmentStatusPicked:
		return next == store.ShipmentStatusShipped
	case store.ShipmentStatusShipped:
		return next == store.ShipmentStatusOutForDelivery || next == store.ShipmentStatusDelivered
	case store.ShipmentStatusOutForDelivery:
		return next == store.ShipmentStatusDelivered
	default:
		return false
	}
}

func shipmentToOrderStatus(status store.ShipmentStatus) (store.OrderStatus, bool) {
	switch status {
	case store.ShipmentStatusShipped:
		return store.OrderStatusShipped, true
	case store.ShipmentStatusOutForDelivery:
		return store.OrderStatusOutForDelivery, true
	case store.ShipmentStatusDelivered:
		return store.OrderStatusDelivered, true
	}
	return "", false
}

func shipmentTopic(status store.ShipmentStatus) (string, bool) {
	switch status {
	case store.ShipmentStatusShipped:
		return events.TopicShipmentShipped, true
	case store.ShipmentStatusOutForDelivery:
		return events.TopicShipmentOutForDelivery, true
	case store.ShipmentStatusDelivered:
		return events.TopicShipmentDelivered, true
	default:
		return "", false
	}
}

func orderStatusRank(status store.OrderStatus) int {
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
	case store.OrderStatusCancelled:
		return -1
	default:
		return -2
	}
}
