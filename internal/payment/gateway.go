package payment

import (
	"context"
	"errors"
	"fmt"

	"speakbook/internal/config"
)

var (
	ErrSignatureInvalid = errors.New("payment signature invalid")
	ErrRefundFailed     = errors.New("refund failed")
)

// Order is a gateway-side authorization to collect Amount (minor units).
type Order struct {
	ID           string `json:"order_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Receipt      string `json:"receipt"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Gateway is the payment provider boundary. Implementations own their wire
// protocol; callers only see the sentinel errors above.
type Gateway interface {
	Name() string
	PublicKey() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
	VerifySignature(ctx context.Context, paymentID, orderID, signature string) error
	Refund(ctx context.Context, paymentID string, amount int64) error
}

func New(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentGateway {
	case "razorpay":
		return NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret), nil
	case "stripe":
		return NewStripe(cfg.StripeSecretKey, cfg.StripePublishableKey), nil
	default:
		return nil, fmt.Errorf("unsupported payment gateway %q", cfg.PaymentGateway)
	}
}
