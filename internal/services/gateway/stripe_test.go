package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signStripe(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeHandleWebhook_CheckoutSessionCompleted(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test"})

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":"ord-1","payment_status":"paid","payment_intent":{"id":"pi_1"}}}}`)
	headers := map[string]string{"Stripe-Signature": signStripe("whsec_test", payload)}

	result, err := g.HandleWebhook(payload, headers)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, "pi_1", result.TransactionID)
	assert.Equal(t, "evt_1", result.EventID)
}

func TestStripeHandleWebhook_PaymentFailedCarriesOrderID(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test"})

	// Intent-level events have no client_reference_id; the order id comes
	// from the metadata attached at checkout-session creation.
	payload := []byte(`{"id":"evt_2","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2","metadata":{"order_id":"ord-2"},"last_payment_error":{"code":"card_declined","message":"Your card was declined."}}}}`)
	headers := map[string]string{"Stripe-Signature": signStripe("whsec_test", payload)}

	result, err := g.HandleWebhook(payload, headers)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "ord-2", result.OrderID)
	assert.Equal(t, "pi_2", result.TransactionID)
	assert.Equal(t, "card_declined", result.ResponseCode)
	assert.Equal(t, "Your card was declined.", result.ErrorMessage)
}

func TestStripeHandleWebhook_UnhandledEventIgnored(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test"})

	payload := []byte(`{"id":"evt_3","type":"invoice.created","data":{"object":{"id":"in_1"}}}`)
	headers := map[string]string{"Stripe-Signature": signStripe("whsec_test", payload)}

	result, err := g.HandleWebhook(payload, headers)
	require.NoError(t, err)
	assert.Equal(t, "IGNORED", result.ResponseCode)
	assert.Empty(t, result.OrderID)
}

func TestStripeHandleWebhook_RejectsBadSignature(t *testing.T) {
	g := NewStripeGateway(StripeConfig{SecretKey: "sk_test", WebhookSecret: "whsec_test"})
	payload := []byte(`{"id":"evt_4","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := g.HandleWebhook(payload, map[string]string{"Stripe-Signature": "t=1,v1=bogus"})
	require.Error(t, err)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "BAD_SIGNATURE", ge.Code)
}
