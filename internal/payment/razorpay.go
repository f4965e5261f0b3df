package payment

import (
	"context"
	"fmt"

	"speakbook/internal/logger"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentRefunder interface {
	Refund(paymentID string, amount int, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Razorpay struct {
	keyID     string
	keySecret string
	orders    orderCreator
	payments  paymentRefunder
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{
		keyID:     keyID,
		keySecret: keySecret,
		orders:    client.Order,
		payments:  client.Payment,
	}
}

func (r *Razorpay) Name() string { return "razorpay" }

func (r *Razorpay) PublicKey() string { return r.keyID }

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	body, err := r.orders.Create(map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("razorpay create order: response has no id")
	}

	return &Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (r *Razorpay) VerifySignature(ctx context.Context, paymentID, orderID, signature string) error {
	if paymentID == "" || orderID == "" || signature == "" {
		return ErrSignatureInvalid
	}

	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(params, signature, r.keySecret) {
		return ErrSignatureInvalid
	}
	return nil
}

func (r *Razorpay) Refund(ctx context.Context, paymentID string, amount int64) error {
	body, err := r.payments.Refund(paymentID, int(amount), nil, nil)
	if err != nil {
		logger.WithError(err).Error("razorpay refund failed", "payment_id", paymentID)
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}

	logger.Info("razorpay refund issued", "payment_id", paymentID, "refund_id", body["id"])
	return nil
}
