package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"zeen/internal/logging"
)

const stripeName = "stripe"

// StripeConfig configures the Stripe adapter.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currencies    []string
}

// StripeGateway is the split-capable adapter. Provider shares are routed
// to the provider's connected account at charge time via transfer data,
// so completed Stripe payments never touch the escrow ledger.
type StripeGateway struct {
	cfg    StripeConfig
	client *client.API
}

// NewStripeGateway returns a configured Stripe adapter.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = []string{"USD", "EUR", "GBP"}
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &StripeGateway{cfg: cfg, client: sc}
}

func (g *StripeGateway) Name() string           { return stripeName }
func (g *StripeGateway) Capability() Capability { return CapabilitySplit }

func (g *StripeGateway) IsAvailable(ctx context.Context) bool {
	return g.cfg.SecretKey != ""
}

func (g *StripeGateway) SupportedCurrencies() []string {
	return g.cfg.Currencies
}

// minorUnits converts a 2dp amount to the gateway's integer minor units.
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (g *StripeGateway) InitializePayment(ctx context.Context, req InitializeRequest) (*PaymentResult, error) {
	if g.cfg.SecretKey == "" {
		return nil, newConfigError(stripeName, "secret key is not set")
	}
	if req.ProviderRecipient == "" {
		// Split recipients must be configured before initialization.
		return nil, newConfigError(stripeName, "provider has no connected account for the split")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderID),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		SuccessURL:        stripe.String(req.CallbackURL + "?order_id=" + req.OrderID),
		CancelURL:         stripe.String(req.CallbackURL + "?order_id=" + req.OrderID + "&cancelled=1"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(minorUnits(req.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			// The order id rides on the intent so intent-level webhooks
			// (payment_intent.payment_failed) can be tied back to the order.
			Metadata: map[string]string{"order_id": req.OrderID},
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.ProviderRecipient),
				Amount:      stripe.Int64(minorUnits(req.ProviderAmount)),
			},
		},
	}
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return g.normalizeError(err)
	}

	logging.Payments().Info().
		Str("gateway", stripeName).
		Str("order_id", req.OrderID).
		Str("session_id", sess.ID).
		Msg("checkout session created")

	return &PaymentResult{
		Success:       true,
		RedirectURL:   sess.URL,
		TransactionID: sess.ID,
		SplitApplied:  true,
	}, nil
}

func (g *StripeGateway) CompletePayment(ctx context.Context, reference string) (*PaymentResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := g.client.CheckoutSessions.Get(reference, params)
	if err != nil {
		return g.normalizeError(err)
	}

	result := &PaymentResult{
		TransactionID: sess.ID,
		SplitApplied:  true,
		Raw:           map[string]interface{}{"payment_status": string(sess.PaymentStatus)},
	}
	if sess.PaymentIntent != nil {
		result.TransactionID = sess.PaymentIntent.ID
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		result.Success = true
		return result, nil
	}
	result.ResponseCode = string(sess.PaymentStatus)
	result.ErrorMessage = "payment was not completed"
	return result, nil
}

func (g *StripeGateway) Refund(ctx context.Context, transactionID string, amount float64, currency string) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
		Amount:        stripe.Int64(minorUnits(amount)),
	}
	params.Context = ctx

	ref, err := g.client.Refunds.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			// Refund rejected by Stripe (already refunded, bad intent id):
			// a normal failure, not an I/O error.
			return &RefundResult{
				Success:      false,
				ResponseCode: string(stripeErr.Code),
				ErrorMessage: stripeErr.Msg,
			}, nil
		}
		return nil, g.wrapError(err)
	}

	return &RefundResult{
		Success:  ref.Status == stripe.RefundStatusSucceeded || ref.Status == stripe.RefundStatusPending,
		RefundID: ref.ID,
	}, nil
}

func (g *StripeGateway) Disburse(ctx context.Context, req DisburseRequest) (*DisburseResult, error) {
	if req.Recipient == "" {
		return nil, newConfigError(stripeName, "missing destination account")
	}
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Destination: stripe.String(req.Recipient),
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)

	tr, err := g.client.Transfers.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode < 500 && stripeErr.Type != stripe.ErrorTypeAPIConnection {
			// 4xx from the transfer API is a terminal per-item failure.
			return &DisburseResult{
				Success:      false,
				ResponseCode: string(stripeErr.Code),
				ErrorMessage: stripeErr.Msg,
			}, nil
		}
		return nil, g.wrapError(err)
	}

	return &DisburseResult{Success: true, TransactionID: tr.ID}, nil
}

func (g *StripeGateway) VerifyWebhookSignature(payload []byte, headers map[string]string) bool {
	sig := headerValue(headers, "Stripe-Signature")
	if sig == "" || g.cfg.WebhookSecret == "" {
		return false
	}
	_, err := webhook.ConstructEvent(payload, sig, g.cfg.WebhookSecret)
	return err == nil
}

func (g *StripeGateway) HandleWebhook(payload []byte, headers map[string]string) (*WebhookResult, error) {
	sig := headerValue(headers, "Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, g.cfg.WebhookSecret)
	if err != nil {
		return nil, &Error{Gateway: stripeName, Code: "BAD_SIGNATURE", Message: "webhook signature verification failed", Err: err}
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(event.Data.Raw, &raw); err == nil {
		result.Raw = logging.RedactMap(raw)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		result.OrderID = sess.ClientReferenceID
		result.TransactionID = sess.ID
		if sess.PaymentIntent != nil {
			result.TransactionID = sess.PaymentIntent.ID
		}
		result.Success = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		result.OrderID = intent.Metadata["order_id"]
		result.TransactionID = intent.ID
		result.Success = false
		if intent.LastPaymentError != nil {
			result.ResponseCode = string(intent.LastPaymentError.Code)
			result.ErrorMessage = intent.LastPaymentError.Msg
		}
	default:
		// Unhandled event types are acknowledged without action.
		result.Success = false
		result.ResponseCode = "IGNORED"
	}

	return result, nil
}

// normalizeError maps a Stripe client error either to a declined
// PaymentResult (card errors) or to a classified gateway error.
func (g *StripeGateway) normalizeError(err error) (*PaymentResult, error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		return &PaymentResult{
			Success:      false,
			ResponseCode: string(stripeErr.Code),
			ErrorMessage: stripeErr.Msg,
		}, nil
	}
	return nil, g.wrapError(err)
}

func (g *StripeGateway) wrapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &Error{
			Gateway:   stripeName,
			Code:      string(stripeErr.Code),
			Message:   stripeErr.Msg,
			Retryable: stripeErr.Type == stripe.ErrorTypeAPIConnection || retryableStatus(stripeErr.HTTPStatusCode),
			Err:       err,
		}
	}
	return newIOError(stripeName, err)
}

// headerValue does a case-insensitive header lookup.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
