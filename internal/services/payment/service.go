// Package payment drives the lifecycle of booking payments: initialize,
// settle via webhook or active confirmation, refund, reconcile. State
// moves only along the payment status machine, and every settlement
// write shares one database transaction with its booking and ledger
// effects.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainerr "zeen/internal/errors"
	"zeen/internal/logging"
	"zeen/internal/models"
	"zeen/internal/repositories"
	"zeen/internal/repositories/cache"
	"zeen/internal/services/fees"
	"zeen/internal/services/gateway"
	"zeen/internal/services/ledger"
	"zeen/internal/services/notification"
)

const (
	defaultGatewayTimeout = 30 * time.Second
	webhookDedupeTTL      = 48 * time.Hour
)

// dedupeCache is the slice of the redis cache webhook dedupe needs.
type dedupeCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

type service struct {
	repo     repositories.PaymentRepository
	registry *gateway.Registry
	cache    dedupeCache
	notifier notification.Notifier
	timeout  time.Duration
}

// NewService returns the payment lifecycle service. The cache may be nil;
// webhook dedupe then relies on the database unique index alone.
func NewService(repo repositories.PaymentRepository, registry *gateway.Registry, cacheSvc *cache.Service, notifier notification.Notifier) Service {
	if repo == nil {
		panic("payment repository is required")
	}
	if registry == nil {
		panic("gateway registry is required")
	}
	if notifier == nil {
		notifier = notification.NewLogNotifier()
	}
	s := &service{
		repo:     repo,
		registry: registry,
		notifier: notifier,
		timeout:  defaultGatewayTimeout,
	}
	if cacheSvc != nil {
		s.cache = cacheSvc
	}
	return s
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// transition moves p to target, enforcing the status machine.
func transition(p *models.Payment, target models.PaymentStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return domainerr.ErrInvalidTransition.WithDetail("payment %d: %s -> %s", p.ID, p.Status, target)
	}
	p.Status = target
	return nil
}

func (s *service) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	booking, err := s.repo.GetBooking(req.BookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, domainerr.ErrBookingNotFound.WithDetail("booking %d", req.BookingID)
		}
		return nil, err
	}
	if booking.Status != models.BookingPending {
		return nil, domainerr.ErrInvalidTransition.WithDetail(
			"booking %d is %s, only pending bookings accept payment", booking.ID, booking.Status)
	}

	gw, err := s.registry.Get(req.Gateway)
	if err != nil {
		return nil, err
	}
	provider, err := s.repo.GetProvider(booking.ProviderID)
	if err != nil {
		return nil, err
	}

	// Amounts come from the booking's frozen snapshot, never from current
	// tier rates.
	breakdown := fees.FromBooking(booking)

	p := &models.Payment{
		BookingID:      booking.ID,
		Status:         models.PaymentPending,
		Amount:         breakdown.ClientPays,
		ZeenFee:        breakdown.ZeenFee,
		GatewayFee:     breakdown.GatewayFee,
		ProviderAmount: breakdown.ProviderReceives,
		Currency:       "USD",
		Gateway:        gw.Name(),
		OrderID:        uuid.NewString(),
	}
	if err := s.repo.Create(p); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := gw.InitializePayment(callCtx, gateway.InitializeRequest{
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		CustomerEmail:     req.CustomerEmail,
		Description:       fmt.Sprintf("booking %d", booking.ID),
		CallbackURL:       req.CallbackURL,
		ProviderAmount:    p.ProviderAmount,
		ProviderRecipient: provider.PayoutRecipient,
	})
	if err != nil {
		s.failPayment(ctx, p, "gateway initialization failed", nil)
		return nil, err
	}
	if !result.Success {
		s.failPayment(ctx, p, result.ErrorMessage, nil)
		return &InitializeResponse{Payment: p}, nil
	}

	updateErr := s.repo.InTransaction(func(tx repositories.PaymentTx) error {
		if err := transition(p, models.PaymentProcessing); err != nil {
			return err
		}
		p.TransactionID = result.TransactionID
		p.ResponseCode = result.ResponseCode
		return tx.UpdatePayment(p)
	})
	if updateErr != nil {
		return nil, updateErr
	}

	logging.Payments().Info().
		Uint("payment_id", p.ID).
		Str("order_id", p.OrderID).
		Str("gateway", p.Gateway).
		Float64("amount", p.Amount).
		Msg("payment initialized")

	return &InitializeResponse{Payment: p, RedirectURL: result.RedirectURL}, nil
}

func (s *service) HandleWebhook(ctx context.Context, gatewayName string, payload []byte, headers map[string]string) error {
	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return err
	}
	if !gw.VerifyWebhookSignature(payload, headers) {
		logging.Payments().Warn().
			Str("gateway", gatewayName).
			Interface("headers", logging.RedactHeaders(headers)).
			Msg("webhook signature verification failed")
		return domainerr.ErrWebhookSignature
	}

	result, err := gw.HandleWebhook(payload, headers)
	if err != nil {
		return err
	}
	if result.ResponseCode == "IGNORED" || result.OrderID == "" {
		return nil
	}

	// Fast-path dedupe in redis; the unique (gateway, event_id) index on
	// webhook_events is the backstop when redis is unavailable.
	dedupeKey := cache.WebhookKey(gw.Name(), result.EventID)
	if s.cache != nil {
		dup, cacheErr := s.cache.Seen(ctx, dedupeKey)
		if cacheErr != nil {
			logging.Payments().Warn().Err(cacheErr).Msg("webhook dedupe cache unavailable")
		} else if dup {
			return nil
		}
	}
	seen, err := s.repo.WebhookEventExists(gw.Name(), result.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	p, err := s.repo.GetByOrderID(result.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			// Acknowledge so the gateway stops retrying; nothing to apply.
			logging.Payments().Warn().
				Str("gateway", gw.Name()).
				Str("order_id", result.OrderID).
				Msg("webhook references unknown order")
			return nil
		}
		return err
	}

	event := &models.WebhookEvent{
		Gateway:       gw.Name(),
		EventID:       result.EventID,
		EventType:     result.EventType,
		TransactionID: result.TransactionID,
		Payload:       result.Raw,
	}
	var applyErr error
	if result.Success {
		applyErr = s.completePayment(ctx, p, gw, &gateway.PaymentResult{
			Success:       true,
			TransactionID: result.TransactionID,
			ResponseCode:  result.ResponseCode,
			CardBrand:     result.CardBrand,
			CardLast4:     result.CardLast4,
		}, event)
	} else {
		applyErr = s.failPayment(ctx, p, result.ErrorMessage, event)
	}
	if applyErr != nil {
		return applyErr
	}

	// Marked only after the settlement committed; a transient database
	// failure leaves the key unset so the gateway's retry can apply the
	// delivery instead of waiting for the reconciliation sweep.
	if s.cache != nil {
		if cacheErr := s.cache.Mark(ctx, dedupeKey, webhookDedupeTTL); cacheErr != nil {
			logging.Payments().Warn().Err(cacheErr).Msg("webhook dedupe mark failed")
		}
	}
	return nil
}

func (s *service) ConfirmByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	p, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case models.PaymentCompleted, models.PaymentRefunded, models.PaymentPartiallyRefunded, models.PaymentFailed:
		// Already settled; confirmation is idempotent.
		return p, nil
	}

	gw, err := s.registry.Get(p.Gateway)
	if err != nil {
		return nil, err
	}

	reference := p.TransactionID
	if reference == "" {
		reference = p.OrderID
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := gw.CompletePayment(callCtx, reference)
	if err != nil {
		// Leave the payment as-is; reconciliation will retry transient
		// failures on the next sweep.
		return nil, err
	}

	if result.Success {
		if err := s.completePayment(ctx, p, gw, result, nil); err != nil {
			return nil, err
		}
	} else if definitiveFailure(result.ResponseCode) {
		if err := s.failPayment(ctx, p, result.ErrorMessage, nil); err != nil {
			return nil, err
		}
	}
	// Otherwise the gateway has no final answer yet; the payment stays
	// processing and the next reconciliation sweep asks again.
	return p, nil
}

// definitiveFailure reports whether a gateway status code means the
// charge can never succeed. Open or in-flight statuses ("unpaid",
// "pending", "ongoing") are not failures.
func definitiveFailure(code string) bool {
	switch code {
	case "failed", "abandoned", "reversed", "expired", "canceled", "cancelled":
		return true
	}
	return false
}

// completePayment settles a successful charge. The payment update, the
// booking confirmation, the escrow ledger credit and the webhook audit
// row commit in one transaction; notifications go out after commit.
func (s *service) completePayment(ctx context.Context, p *models.Payment, gw gateway.Gateway, result *gateway.PaymentResult, event *models.WebhookEvent) error {
	if p.Status == models.PaymentCompleted {
		logging.Payments().Info().Uint("payment_id", p.ID).Msg("payment already completed")
		return nil
	}

	var pending []notification.Notification
	err := s.repo.InTransaction(func(tx repositories.PaymentTx) error {
		// A webhook can land before the redirect marked the payment
		// processing; step through the intermediate state.
		if p.Status == models.PaymentPending {
			if err := transition(p, models.PaymentProcessing); err != nil {
				return err
			}
		}
		if err := transition(p, models.PaymentCompleted); err != nil {
			return err
		}
		now := time.Now()
		p.CompletedAt = &now
		if result.TransactionID != "" {
			p.TransactionID = result.TransactionID
		}
		p.ResponseCode = result.ResponseCode
		p.CardBrand = result.CardBrand
		p.CardLast4 = result.CardLast4
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}

		booking, err := tx.GetBooking(p.BookingID)
		if err != nil {
			return err
		}
		if booking.Status.CanTransitionTo(models.BookingConfirmed) {
			booking.Status = models.BookingConfirmed
			if err := tx.UpdateBooking(booking); err != nil {
				return err
			}
			pending = append(pending, notification.Notification{
				Event:      notification.EventBookingConfirmed,
				BookingID:  booking.ID,
				PaymentID:  p.ID,
				ProviderID: booking.ProviderID,
				ClientID:   booking.ClientID,
				Amount:     p.Amount,
			})
		}

		// Escrow gateways pay the platform in full; the provider's share
		// becomes a ledger credit disbursed later by the payout worker.
		// Split gateways already routed the provider's share at charge time.
		if gw.Capability() == gateway.CapabilityEscrow {
			if _, err := ledger.RecordCreditTx(tx, booking.ProviderID, p.ProviderAmount,
				ledger.SourcePayment, p.ID, fmt.Sprintf("provider share of payment %d", p.ID)); err != nil {
				return err
			}
		}

		if event != nil {
			if err := tx.InsertWebhookEvent(event); err != nil {
				return err
			}
		}

		pending = append(pending, notification.Notification{
			Event:      notification.EventPaymentCompleted,
			BookingID:  booking.ID,
			PaymentID:  p.ID,
			ProviderID: booking.ProviderID,
			ClientID:   booking.ClientID,
			Amount:     p.Amount,
		})
		return nil
	})
	if err != nil {
		return err
	}

	for _, n := range pending {
		s.notifier.Notify(ctx, n)
	}
	logging.Payments().Info().
		Uint("payment_id", p.ID).
		Str("transaction_id", p.TransactionID).
		Float64("amount", p.Amount).
		Msg("payment completed")
	return nil
}

func (s *service) failPayment(ctx context.Context, p *models.Payment, reason string, event *models.WebhookEvent) error {
	if p.Status == models.PaymentFailed {
		return nil
	}
	// A failure notice arriving after the payment settled is stale,
	// typically an out-of-order webhook; acknowledge it without touching
	// state so the gateway stops redelivering.
	switch p.Status {
	case models.PaymentCompleted, models.PaymentRefunded, models.PaymentPartiallyRefunded:
		logging.Payments().Info().
			Uint("payment_id", p.ID).
			Str("status", string(p.Status)).
			Str("reason", reason).
			Msg("ignoring failure notice for settled payment")
		return nil
	}
	err := s.repo.InTransaction(func(tx repositories.PaymentTx) error {
		if err := transition(p, models.PaymentFailed); err != nil {
			return err
		}
		p.FailureReason = reason
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}
		if event != nil {
			return tx.InsertWebhookEvent(event)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notification.Notification{
		Event:     notification.EventPaymentFailed,
		BookingID: p.BookingID,
		PaymentID: p.ID,
		Amount:    p.Amount,
		Reason:    reason,
	})
	logging.Payments().Warn().
		Uint("payment_id", p.ID).
		Str("reason", reason).
		Msg("payment failed")
	return nil
}

func (s *service) Refund(ctx context.Context, req RefundRequest) (*models.Payment, error) {
	p, err := s.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.Refundable() {
		return nil, domainerr.ErrPaymentNotRefundable.WithDetail("payment %d is %s", p.ID, p.Status)
	}
	if req.Amount <= 0 {
		return nil, domainerr.ErrInvalidAmount.WithDetail("%.2f", req.Amount)
	}
	amount := round2(decimal.NewFromFloat(req.Amount))
	if amount > p.RemainingRefundable() {
		return nil, domainerr.ErrRefundExceedsPayment.WithDetail(
			"requested %.2f, remaining %.2f", amount, p.RemainingRefundable())
	}

	gw, err := s.registry.Get(p.Gateway)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := gw.Refund(callCtx, p.TransactionID, amount, p.Currency)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, domainerr.ErrRefundDeclined.WithDetail("%s", result.ErrorMessage)
	}

	var pending []notification.Notification
	err = s.repo.InTransaction(func(tx repositories.PaymentTx) error {
		refunded := round2(decimal.NewFromFloat(p.RefundedAmount).Add(decimal.NewFromFloat(amount)))
		target := models.PaymentPartiallyRefunded
		full := refunded >= p.Amount
		if full {
			target = models.PaymentRefunded
		}
		if err := transition(p, target); err != nil {
			return err
		}
		p.RefundedAmount = refunded
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}

		booking, err := tx.GetBooking(p.BookingID)
		if err != nil {
			return err
		}

		if full && booking.Status.CanTransitionTo(models.BookingCancelled) {
			booking.Status = models.BookingCancelled
			booking.CancellationReason = cancelledBySystemReason
			if err := tx.UpdateBooking(booking); err != nil {
				return err
			}
			pending = append(pending, notification.Notification{
				Event:      notification.EventBookingCancelled,
				BookingID:  booking.ID,
				PaymentID:  p.ID,
				ProviderID: booking.ProviderID,
				ClientID:   booking.ClientID,
				Reason:     cancelledBySystemReason,
			})
		}

		// Under escrow the provider's share was credited to the ledger at
		// completion; claw back the proportional part. A balance already
		// disbursed cannot be debited, which is logged for manual recovery
		// rather than blocking the client's refund.
		if gw.Capability() == gateway.CapabilityEscrow && p.Amount > 0 {
			share := round2(decimal.NewFromFloat(amount).
				Mul(decimal.NewFromFloat(p.ProviderAmount)).
				Div(decimal.NewFromFloat(p.Amount)))
			if share > 0 {
				_, debitErr := ledger.RecordDebitTx(tx, booking.ProviderID, share,
					ledger.SourceRefund, p.ID, fmt.Sprintf("clawback for refund of payment %d", p.ID))
				if debitErr != nil {
					if errors.Is(debitErr, domainerr.ErrInsufficientBalance) {
						logging.Payments().Error().
							Uint("payment_id", p.ID).
							Uint("provider_id", booking.ProviderID).
							Float64("share", share).
							Msg("refund clawback exceeds provider balance, manual recovery required")
					} else {
						return debitErr
					}
				}
			}
		}

		pending = append(pending, notification.Notification{
			Event:      notification.EventPaymentRefunded,
			BookingID:  booking.ID,
			PaymentID:  p.ID,
			ProviderID: booking.ProviderID,
			ClientID:   booking.ClientID,
			Amount:     amount,
			Reason:     req.Reason,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range pending {
		s.notifier.Notify(ctx, n)
	}
	logging.Payments().Info().
		Uint("payment_id", p.ID).
		Float64("amount", amount).
		Str("refund_id", result.RefundID).
		Msg("payment refunded")
	return p, nil
}

func (s *service) ReconcilePending(ctx context.Context, age time.Duration) (int, error) {
	stuck, err := s.repo.ProcessingOlderThan(age)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range stuck {
		before := stuck[i].Status
		p, err := s.ConfirmByOrderID(ctx, stuck[i].OrderID)
		if err != nil {
			// Transient gateway trouble; the next sweep picks it up again.
			logging.Payments().Warn().
				Err(err).
				Uint("payment_id", stuck[i].ID).
				Msg("reconciliation attempt failed")
			continue
		}
		if p.Status != before {
			settled++
		}
	}
	if len(stuck) > 0 {
		logging.Payments().Info().
			Int("candidates", len(stuck)).
			Int("settled", settled).
			Msg("reconciliation sweep finished")
	}
	return settled, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, domainerr.ErrPaymentNotFound.WithDetail("payment %d", id)
		}
		return nil, err
	}
	return p, nil
}

func (s *service) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	p, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, domainerr.ErrPaymentNotFound.WithDetail("order %s", orderID)
		}
		return nil, err
	}
	return p, nil
}
