package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"zeen/internal/logging"
)

const (
	paystackName    = "paystack"
	paystackBaseURL = "https://api.paystack.co"
)

// PaystackConfig configures the Paystack adapter.
type PaystackConfig struct {
	SecretKey  string
	BaseURL    string
	Timeout    time.Duration
	Currencies []string
}

// PaystackGateway is the escrow adapter: the platform collects the full
// charge and the provider's share is credited to the ledger for later
// disbursement through the transfer API.
type PaystackGateway struct {
	cfg    PaystackConfig
	client *http.Client
}

// NewPaystackGateway returns a configured Paystack adapter.
func NewPaystackGateway(cfg PaystackConfig) *PaystackGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = paystackBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = []string{"NGN", "GHS", "KES", "ZAR"}
	}
	return &PaystackGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *PaystackGateway) Name() string           { return paystackName }
func (g *PaystackGateway) Capability() Capability { return CapabilityEscrow }

func (g *PaystackGateway) IsAvailable(ctx context.Context) bool {
	return g.cfg.SecretKey != ""
}

func (g *PaystackGateway) SupportedCurrencies() []string {
	return g.cfg.Currencies
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs one API request and decodes the standard envelope.
func (g *PaystackGateway) call(ctx context.Context, method, path string, payload interface{}) (*paystackEnvelope, error) {
	if g.cfg.SecretKey == "" {
		return nil, newConfigError(paystackName, "secret key is not set")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, newIOError(paystackName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newIOError(paystackName, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		logging.Payments().Warn().
			Str("gateway", paystackName).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("gateway returned error status")
		return nil, newStatusError(paystackName, resp.StatusCode, string(raw))
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &envelope, nil
}

func paystackMinor(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (g *PaystackGateway) InitializePayment(ctx context.Context, req InitializeRequest) (*PaymentResult, error) {
	payload := map[string]interface{}{
		"email":        req.CustomerEmail,
		"amount":       paystackMinor(req.Amount),
		"currency":     req.Currency,
		"reference":    req.OrderID,
		"callback_url": req.CallbackURL,
		"metadata":     map[string]interface{}{"description": req.Description},
	}

	envelope, err := g.call(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		return &PaymentResult{Success: false, ErrorMessage: envelope.Message}, nil
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode initialize data: %w", err)
	}

	logging.Payments().Info().
		Str("gateway", paystackName).
		Str("order_id", req.OrderID).
		Msg("transaction initialized")

	return &PaymentResult{
		Success:       true,
		RedirectURL:   data.AuthorizationURL,
		TransactionID: data.Reference,
	}, nil
}

type paystackTransaction struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	GatewayResponse string `json:"gateway_response"`
	Authorization   struct {
		CardType string `json:"card_type"`
		Last4    string `json:"last4"`
	} `json:"authorization"`
}

func (g *PaystackGateway) CompletePayment(ctx context.Context, reference string) (*PaymentResult, error) {
	envelope, err := g.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		return &PaymentResult{Success: false, ErrorMessage: envelope.Message}, nil
	}

	var txn paystackTransaction
	if err := json.Unmarshal(envelope.Data, &txn); err != nil {
		return nil, fmt.Errorf("decode verify data: %w", err)
	}

	result := &PaymentResult{
		TransactionID: fmt.Sprintf("%d", txn.ID),
		ResponseCode:  txn.Status,
		CardBrand:     txn.Authorization.CardType,
		CardLast4:     txn.Authorization.Last4,
		Raw:           map[string]interface{}{"status": txn.Status, "gateway_response": txn.GatewayResponse},
	}
	if txn.Status == "success" {
		result.Success = true
		return result, nil
	}
	result.ErrorMessage = txn.GatewayResponse
	return result, nil
}

func (g *PaystackGateway) Refund(ctx context.Context, transactionID string, amount float64, currency string) (*RefundResult, error) {
	payload := map[string]interface{}{
		"transaction": transactionID,
		"amount":      paystackMinor(amount),
	}
	envelope, err := g.call(ctx, http.MethodPost, "/refund", payload)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		return &RefundResult{Success: false, ErrorMessage: envelope.Message}, nil
	}

	var data struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode refund data: %w", err)
	}
	return &RefundResult{
		Success:      true,
		RefundID:     fmt.Sprintf("%d", data.ID),
		ResponseCode: data.Status,
	}, nil
}

func (g *PaystackGateway) Disburse(ctx context.Context, req DisburseRequest) (*DisburseResult, error) {
	if req.Recipient == "" {
		return nil, newConfigError(paystackName, "missing transfer recipient")
	}
	payload := map[string]interface{}{
		"source":    "balance",
		"amount":    paystackMinor(req.Amount),
		"currency":  req.Currency,
		"recipient": req.Recipient,
		"reference": req.Reference,
		"reason":    req.Narration,
	}

	envelope, err := g.call(ctx, http.MethodPost, "/transfer", payload)
	if err != nil {
		var ge *Error
		// A 4xx from the transfer API (invalid recipient, bad details) is
		// a terminal per-item failure, not a batch-level error.
		if errors.As(err, &ge) && !ge.Retryable {
			return &DisburseResult{Success: false, ResponseCode: ge.Code, ErrorMessage: ge.Message}, nil
		}
		return nil, err
	}
	if !envelope.Status {
		return &DisburseResult{Success: false, ErrorMessage: envelope.Message}, nil
	}

	var data struct {
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode transfer data: %w", err)
	}
	return &DisburseResult{
		Success:       true,
		TransactionID: data.TransferCode,
		ResponseCode:  data.Status,
	}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA512 of the raw body against
// the x-paystack-signature header.
func (g *PaystackGateway) VerifyWebhookSignature(payload []byte, headers map[string]string) bool {
	sig := headerValue(headers, "x-paystack-signature")
	if sig == "" || g.cfg.SecretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(g.cfg.SecretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (g *PaystackGateway) HandleWebhook(payload []byte, headers map[string]string) (*WebhookResult, error) {
	if !g.VerifyWebhookSignature(payload, headers) {
		return nil, &Error{Gateway: paystackName, Code: "BAD_SIGNATURE", Message: "webhook signature verification failed"}
	}

	var event struct {
		Event string              `json:"event"`
		Data  paystackTransaction `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		raw = nil
	}

	result := &WebhookResult{
		// Paystack does not send a distinct event id; the reference is
		// unique per charge attempt and serves for dedupe.
		EventID:       fmt.Sprintf("%s:%s", event.Event, event.Data.Reference),
		EventType:     event.Event,
		OrderID:       event.Data.Reference,
		TransactionID: fmt.Sprintf("%d", event.Data.ID),
		ResponseCode:  event.Data.Status,
		CardBrand:     event.Data.Authorization.CardType,
		CardLast4:     event.Data.Authorization.Last4,
		Raw:           logging.RedactMap(raw),
	}

	switch event.Event {
	case "charge.success":
		result.Success = true
	case "charge.failed":
		result.Success = false
		result.ErrorMessage = event.Data.GatewayResponse
	default:
		result.Success = false
		result.ResponseCode = "IGNORED"
	}
	return result, nil
}
