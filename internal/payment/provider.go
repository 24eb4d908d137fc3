package payment

import (
	"context"
	"net/http"
)

// SessionRequest captures the information needed to open a checkout session
// with the card provider. Amount is in whole rupees.
type SessionRequest struct {
	OrderID         string
	Amount          int64
	Currency        string
	ExpiresAtSec    int
	CallbackBaseURL string
}

// SessionResponse is the minimal data returned when a session is created.
type SessionResponse struct {
	Provider    string
	SessionID   string
	RedirectURL string
	ExpiresAt   int64
}

// WebhookVerifyResult contains the normalised data extracted from a webhook
// notification after signature verification.
type WebhookVerifyResult struct {
	Valid           bool
	OrderID         string
	Amount          int64
	Status          string
	ProviderPayload []byte
	Err             error
}

// Provider abstracts the upstream card payment gateway.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error)
}
