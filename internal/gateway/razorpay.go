package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"admitpredict/internal/config"

	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentGateway is the slice of the hosted gateway this service
// depends on: minting orders and authenticating checkout callbacks.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// RazorpayGateway wraps the Razorpay SDK client.
type RazorpayGateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

func NewRazorpayGateway(cfg *config.RazorpayConfig) *RazorpayGateway {
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	client.SetTimeout(int16(timeout))

	return &RazorpayGateway{
		client:    client,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

// CreateOrder mints a gateway order and returns its ID. The SDK call
// carries the client-level timeout; ctx cancellation is checked before
// spending a round trip.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := map[string]interface{}{
		"amount":   amount, // minor currency units (paise)
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	resp, err := g.client.Order.Create(data, nil)
	if err != nil {
		// the SDK error carries the gateway's own error text, surface it
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	orderID, ok := resp["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("razorpay order create: response missing order id")
	}
	return orderID, nil
}

// VerifySignature recomputes the checkout callback signature and
// compares it in constant time.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Sign(orderID, paymentID, g.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// Sign computes the hex HMAC-SHA256 of "orderID|paymentID" keyed with
// the gateway secret. This is the signature scheme Razorpay uses for
// checkout callbacks.
func Sign(orderID, paymentID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}
