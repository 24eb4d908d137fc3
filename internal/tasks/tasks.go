// Package tasks defines the asynq work queue shared by the API and the
// worker binary: loyalty awards, order confirmation email and low-stock
// alerts run off the request path.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeLoyaltyAward      = "loyalty:award"
	TypeOrderConfirmation = "order:confirmation"
	TypeLowStockAlert     = "inventory:low_stock"
)

// LoyaltyAwardPayload carries an earn-on-purchase award.
type LoyaltyAwardPayload struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId"`
	Total   int64  `json:"total"`
}

// OrderConfirmationPayload identifies the order to confirm by email.
type OrderConfirmationPayload struct {
	OrderID string `json:"orderId"`
}

// LowStockAlertPayload describes the variant that ran low.
type LowStockAlertPayload struct {
	VariantID string `json:"variantId"`
	Name      string `json:"name"`
	Stock     int32  `json:"stock"`
}

// NewLoyaltyAwardTask builds the award task.
func NewLoyaltyAwardTask(p LoyaltyAwardPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal loyalty award payload: %w", err)
	}
	return asynq.NewTask(TypeLoyaltyAward, payload, asynq.MaxRetry(5)), nil
}

// NewOrderConfirmationTask builds the confirmation email task.
func NewOrderConfirmationTask(p OrderConfirmationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal order confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeOrderConfirmation, payload, asynq.MaxRetry(3)), nil
}

// NewLowStockAlertTask builds the low-stock alert task.
func NewLowStockAlertTask(p LowStockAlertPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal low stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, payload, asynq.MaxRetry(3)), nil
}
