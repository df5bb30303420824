package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test"

func sign(t *testing.T, payload string) string {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"client_reference_id": "cart-1",
			"customer_email": "buyer@example.com",
			"amount_total": 45000,
			"metadata": {"city": "Cairo"}
		}}
	}`

	ev, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
	require.NoError(t, err)
	require.NotNil(t, ev.Checkout)

	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_1", ev.Checkout.SessionID)
	assert.Equal(t, "cart-1", ev.Checkout.CartID)
	assert.Equal(t, "buyer@example.com", ev.Checkout.CustomerEmail)
	assert.Equal(t, int64(45000), ev.Checkout.AmountMinor)
	assert.Equal(t, "Cairo", ev.Checkout.Metadata["city"])
}

func TestParseWebhook_OtherEvent(t *testing.T) {
	t.Parallel()

	payload := `{"id":"evt_2","object":"event","type":"payment_intent.created","data":{"object":{}}}`
	ev, err := parseWebhook([]byte(payload), sign(t, payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.created", ev.Type)
	assert.Nil(t, ev.Checkout)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	t.Parallel()

	payload := `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`
	_, err := parseWebhook([]byte(payload), "t=1,v1=deadbeef", testSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	_, err := Disabled{}.CreateCheckoutSession(context.Background(), CheckoutParams{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = Disabled{}.ParseWebhook(nil, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}
