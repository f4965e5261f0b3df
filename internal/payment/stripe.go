package payment

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"speakbook/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// Stripe maps orders onto PaymentIntents. The order id and payment id are
// both the intent id; a payment verifies once the intent has succeeded.
type Stripe struct {
	publishableKey string
	createIntent   func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getIntent      func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	createRefund   func(params *stripe.RefundParams) (*stripe.Refund, error)
}

func NewStripe(secretKey, publishableKey string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{
		publishableKey: publishableKey,
		createIntent:   paymentintent.New,
		getIntent:      paymentintent.Get,
		createRefund:   refund.New,
	}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) PublicKey() string { return s.publishableKey }

func (s *Stripe) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("receipt", receipt)

	pi, err := s.createIntent(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &Order{
		ID:           pi.ID,
		Amount:       amount,
		Currency:     currency,
		Receipt:      receipt,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// VerifySignature treats the client secret as the signature and requires
// the intent to have succeeded.
func (s *Stripe) VerifySignature(ctx context.Context, paymentID, orderID, signature string) error {
	if paymentID == "" || paymentID != orderID {
		return ErrSignatureInvalid
	}

	params := &stripe.PaymentIntentParams{}
	pi, err := s.getIntent(orderID, params)
	if err != nil {
		logger.WithError(err).Warn("stripe payment intent lookup failed", "order_id", orderID)
		return ErrSignatureInvalid
	}

	if subtle.ConstantTimeCompare([]byte(pi.ClientSecret), []byte(signature)) != 1 {
		return ErrSignatureInvalid
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return ErrSignatureInvalid
	}
	return nil
}

func (s *Stripe) Refund(ctx context.Context, paymentID string, amount int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Amount:        stripe.Int64(amount),
	}

	r, err := s.createRefund(params)
	if err != nil {
		logger.WithError(err).Error("stripe refund failed", "payment_id", paymentID)
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	if r.Status == stripe.RefundStatusFailed || r.Status == stripe.RefundStatusCanceled {
		return fmt.Errorf("%w: refund %s is %s", ErrRefundFailed, r.ID, r.Status)
	}

	logger.Info("stripe refund issued", "payment_id", paymentID, "refund_id", r.ID)
	return nil
}
