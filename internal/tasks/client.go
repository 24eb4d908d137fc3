package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// Client enqueues background tasks. It satisfies the enqueuer contracts of
// checkout, inventory and the event bus scheduler.
type Client struct {
	A   *asynq.Client
	Log zerolog.Logger
}

// EnqueueLoyaltyAward schedules an earn-on-purchase award.
func (c *Client) EnqueueLoyaltyAward(ctx context.Context, userID, orderID string, total int64) error {
	task, err := NewLoyaltyAwardTask(LoyaltyAwardPayload{UserID: userID, OrderID: orderID, Total: total})
	if err != nil {
		return err
	}
	_, err = c.A.EnqueueContext(ctx, task)
	return err
}

// EnqueueOrderConfirmation schedules the confirmation email.
func (c *Client) EnqueueOrderConfirmation(ctx context.Context, orderID string) error {
	task, err := NewOrderConfirmationTask(OrderConfirmationPayload{OrderID: orderID})
	if err != nil {
		return err
	}
	_, err = c.A.EnqueueContext(ctx, task)
	return err
}

// EnqueueLowStockAlert schedules the low-stock notification.
func (c *Client) EnqueueLowStockAlert(ctx context.Context, variantID, name string, stock int32) error {
	task, err := NewLowStockAlertTask(LowStockAlertPayload{VariantID: variantID, Name: name, Stock: stock})
	if err != nil {
		return err
	}
	_, err = c.A.EnqueueContext(ctx, task)
	return err
}

// Schedule implements events.DeliveryScheduler: topics with follow-up work
// get a task, everything else is persistence-only.
func (c *Client) Schedule(ctx context.Context, event store.DomainEvent) error {
	switch event.Topic {
	case events.TopicStockLow:
		var p struct {
			VariantID string `json:"variantId"`
			Product   string `json:"product"`
			Stock     int32  `json:"stock"`
		}
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		return c.EnqueueLowStockAlert(ctx, p.VariantID, p.Product, p.Stock)
	default:
		return nil
	}
}
