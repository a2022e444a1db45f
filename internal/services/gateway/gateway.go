// Package gateway is the uniform contract over heterogeneous payment
// providers. Adapters normalize provider wire formats into the result
// shapes below; a customer decline is a failure result, never an error.
// Errors are reserved for misconfiguration and I/O failures.
package gateway

import (
	"context"

	"zeen/internal/models"
)

// Capability distinguishes how a gateway settles the provider's share.
type Capability string

const (
	// CapabilitySplit gateways divide the charge between platform and
	// provider at charge time.
	CapabilitySplit Capability = "split"
	// CapabilityEscrow gateways pay the platform in full; the provider's
	// share is credited to the ledger and disbursed later.
	CapabilityEscrow Capability = "escrow"
)

// InitializeRequest starts a hosted-payment-page flow.
type InitializeRequest struct {
	OrderID       string
	Amount        float64
	Currency      string
	CustomerEmail string
	Description   string
	CallbackURL   string

	// Split details. Only split-capable gateways read these; they must be
	// set before initialization when the gateway supports splitting.
	ProviderAmount    float64
	ProviderRecipient string
}

// PaymentResult is the normalized outcome of an initialize or complete
// call. Success=false with an ErrorMessage is a normal decline.
type PaymentResult struct {
	Success       bool
	RedirectURL   string
	TransactionID string
	ResponseCode  string
	ErrorMessage  string
	CardBrand     string
	CardLast4     string
	SplitApplied  bool
	Raw           models.JSON
}

// RefundResult is the normalized outcome of a refund call.
type RefundResult struct {
	Success      bool
	RefundID     string
	ResponseCode string
	ErrorMessage string
	Raw          models.JSON
}

// WebhookResult is a verified, normalized webhook notification.
type WebhookResult struct {
	EventID       string
	EventType     string
	OrderID       string
	TransactionID string
	Success       bool
	ResponseCode  string
	ErrorMessage  string
	CardBrand     string
	CardLast4     string
	Raw           models.JSON
}

// DisburseRequest pays out a provider's balance.
type DisburseRequest struct {
	Reference string
	Amount    float64
	Currency  string
	Recipient string
	BankCode  string
	Narration string
}

// DisburseResult is the normalized outcome of a disbursement.
type DisburseResult struct {
	Success       bool
	TransactionID string
	ResponseCode  string
	ErrorMessage  string
	Raw           models.JSON
}

// Gateway is implemented by every payment provider adapter.
type Gateway interface {
	Name() string
	Capability() Capability
	IsAvailable(ctx context.Context) bool
	SupportedCurrencies() []string

	InitializePayment(ctx context.Context, req InitializeRequest) (*PaymentResult, error)
	// CompletePayment queries the definitive outcome for a previously
	// initialized payment, identified by the gateway's own reference.
	CompletePayment(ctx context.Context, reference string) (*PaymentResult, error)
	Refund(ctx context.Context, transactionID string, amount float64, currency string) (*RefundResult, error)
	Disburse(ctx context.Context, req DisburseRequest) (*DisburseResult, error)

	// VerifyWebhookSignature authenticates a raw webhook delivery. An
	// unverifiable webhook must be discarded by the caller.
	VerifyWebhookSignature(payload []byte, headers map[string]string) bool
	HandleWebhook(payload []byte, headers map[string]string) (*WebhookResult, error)
}
