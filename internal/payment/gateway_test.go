package payment

import (
	"testing"

	"speakbook/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g, err := New(&config.Config{PaymentGateway: "razorpay", RazorpayKeyID: "rzp_key"})
	require.NoError(t, err)
	assert.Equal(t, "razorpay", g.Name())
	assert.Equal(t, "rzp_key", g.PublicKey())

	g, err = New(&config.Config{PaymentGateway: "stripe", StripePublishableKey: "pk_test"})
	require.NoError(t, err)
	assert.Equal(t, "stripe", g.Name())

	_, err = New(&config.Config{PaymentGateway: "paypal"})
	assert.Error(t, err)
}
