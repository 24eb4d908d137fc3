package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Razorpay implements Provider for Razorpay checkout integrations.
type Razorpay struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Sandbox   bool
}

// CreateSession issues a checkout-style response without performing a network
// call. The real implementation would call the Razorpay Orders API; tests
// drive the rest of the flow off this deterministic session id.
func (p Razorpay) CreateSession(_ context.Context, req SessionRequest) (SessionResponse, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return SessionResponse{}, errors.New("order id is required")
	}
	if req.Amount <= 0 {
		return SessionResponse{}, errors.New("amount must be positive")
	}
	sessionID := fmt.Sprintf("order_rzp_%s", req.OrderID)
	expiresAt := time.Now().Add(time.Duration(req.ExpiresAtSec) * time.Second)
	return SessionResponse{
		Provider:    "razorpay",
		SessionID:   sessionID,
		RedirectURL: fmt.Sprintf("%s/checkout/%s", strings.TrimRight(p.host(), "/"), sessionID),
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

func (p Razorpay) host() string {
	host := strings.TrimSpace(p.BaseURL)
	if host == "" {
		if p.Sandbox {
			return "https://api-test.razorpay.com"
		}
		return "https://api.razorpay.com"
	}
	return host
}

// VerifyWebhook validates the X-Razorpay-Signature header, an HMAC-SHA256 of
// the raw body, and normalises the payload.
func (p Razorpay) VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error) {
	provided := strings.TrimSpace(r.Header.Get("X-Razorpay-Signature"))
	expected := p.computeSignature(body)
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}
	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					OrderID string `json:"order_id"`
					// Razorpay amounts are in paise.
					Amount int64  `json:"amount"`
					Status string `json:"status"`
					Notes  struct {
						OrderRef string `json:"order_ref"`
					} `json:"notes"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	entity := payload.Payload.Payment.Entity
	orderID := entity.Notes.OrderRef
	if orderID == "" {
		orderID = strings.TrimPrefix(entity.OrderID, "order_rzp_")
	}
	if orderID == "" {
		return WebhookVerifyResult{Valid: false, Err: errors.New("missing order reference")}, nil
	}
	return WebhookVerifyResult{
		Valid:           true,
		OrderID:         orderID,
		Amount:          entity.Amount / 100,
		Status:          normaliseRazorpayStatus(payload.Event, entity.Status),
		ProviderPayload: body,
	}, nil
}

func (p Razorpay) computeSignature(body []byte) string {
	secret := strings.TrimSpace(p.KeySecret)
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normaliseRazorpayStatus(event, status string) string {
	switch strings.ToLower(strings.TrimSpace(event)) {
	case "payment.captured":
		return "PAID"
	case "payment.failed":
		return "FAILED"
	case "refund.processed":
		return "REFUNDED"
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "captured":
		return "PAID"
	case "failed":
		return "FAILED"
	default:
		return "PENDING"
	}
}
