package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated           = "order.created"
	TopicOrderPaid              = "order.paid"
	TopicOrderCancelled         = "order.cancelled"
	TopicPointsRedeemed         = "points.redeemed"
	TopicPointsAwarded          = "points.awarded"
	TopicShipmentShipped        = "shipment.shipped"
	TopicShipmentOutForDelivery = "shipment.out_for_delivery"
	TopicShipmentDelivered      = "shipment.delivered"
	TopicStockLow               = "stock.low"
	TopicPurchaseOrderReceived  = "purchase_order.received"
)

// DefaultTopics returns the canonical list of topics downstream consumers
// may subscribe to.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCancelled,
		TopicPointsRedeemed,
		TopicPointsAwarded,
		TopicShipmentShipped,
		TopicShipmentOutForDelivery,
		TopicShipmentDelivered,
		TopicStockLow,
		TopicPurchaseOrderReceived,
	}
}
