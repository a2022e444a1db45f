// Package payout batches eligible provider balances into scheduled
// disbursements and pushes them through the payout gateways. A payout's
// amount is frozen when it is scheduled; processing debits the ledger
// and marks the payout completed in one database transaction.
package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainerr "zeen/internal/errors"
	"zeen/internal/logging"
	"zeen/internal/models"
	"zeen/internal/repositories"
	"zeen/internal/services/gateway"
	"zeen/internal/services/ledger"
	"zeen/internal/services/notification"
)

const disburseTimeout = 30 * time.Second

type service struct {
	repo     repositories.PayoutRepository
	ledger   ledger.Service
	registry *gateway.Registry
	notifier notification.Notifier
	cfg      Config
}

// NewService returns the payout scheduler.
func NewService(repo repositories.PayoutRepository, ledgerSvc ledger.Service, registry *gateway.Registry, notifier notification.Notifier, cfg Config) Service {
	if repo == nil {
		panic("payout repository is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if registry == nil {
		panic("gateway registry is required")
	}
	if notifier == nil {
		notifier = notification.NewLogNotifier()
	}
	return &service{
		repo:     repo,
		ledger:   ledgerSvc,
		registry: registry,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
	}
}

func (s *service) SchedulePayouts(ctx context.Context) (int, error) {
	providers, err := s.repo.ProvidersWithLedgerActivity()
	if err != nil {
		return 0, err
	}

	batchID := uuid.NewString()
	scheduled := 0
	for i := range providers {
		p := &providers[i]
		created, err := s.scheduleOne(ctx, p, batchID)
		if err != nil {
			// Skip conditions are expected; anything else is logged and the
			// sweep moves on to the next provider.
			if !isSkip(err) {
				logging.Payments().Error().
					Err(err).
					Uint("provider_id", p.ID).
					Msg("payout scheduling failed")
			}
			continue
		}
		logging.Payments().Info().
			Uint("provider_id", p.ID).
			Uint("payout_id", created.ID).
			Float64("amount", created.Amount).
			Str("batch_id", batchID).
			Msg("payout scheduled")
		scheduled++
	}
	return scheduled, nil
}

func (s *service) ScheduleForProvider(ctx context.Context, providerID uint) (*models.ScheduledPayout, error) {
	provider, err := s.repo.Provider(providerID)
	if err != nil {
		return nil, err
	}
	return s.scheduleOne(ctx, provider, uuid.NewString())
}

// isSkip reports whether err is one of the expected reasons a provider
// sits out a scheduling sweep.
func isSkip(err error) bool {
	return errors.Is(err, domainerr.ErrPayoutAlreadyScheduled) ||
		errors.Is(err, domainerr.ErrMissingPayoutDetails) ||
		errors.Is(err, domainerr.ErrInsufficientBalance)
}

func (s *service) scheduleOne(ctx context.Context, provider *models.Provider, batchID string) (*models.ScheduledPayout, error) {
	if !provider.HasPayoutDetails() {
		return nil, domainerr.ErrMissingPayoutDetails.WithDetail("provider %d", provider.ID)
	}
	active, err := s.repo.HasActivePayout(provider.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domainerr.ErrPayoutAlreadyScheduled.WithDetail("provider %d", provider.ID)
	}

	cutoff := time.Now().Add(-s.cfg.HoldPeriod)
	eligible, err := s.ledger.EligibleBalance(ctx, provider.ID, cutoff)
	if err != nil {
		return nil, err
	}
	if eligible < s.cfg.MinimumAmount {
		return nil, domainerr.ErrInsufficientBalance.WithDetail(
			"eligible %.2f below minimum %.2f", eligible, s.cfg.MinimumAmount)
	}

	payout := &models.ScheduledPayout{
		ProviderID:   provider.ID,
		BatchID:      batchID,
		Status:       models.PayoutPending,
		Amount:       eligible,
		Currency:     "USD",
		Gateway:      provider.PayoutGateway,
		ScheduledFor: time.Now(),
	}
	if err := s.repo.Create(payout); err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) ProcessDuePayouts(ctx context.Context) (*BatchResult, error) {
	due, err := s.repo.Due(time.Now(), s.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	return s.processAll(ctx, due, ""), nil
}

func (s *service) ProcessBatch(ctx context.Context, batchID string) (*BatchResult, error) {
	payouts, err := s.repo.ByBatch(batchID)
	if err != nil {
		return nil, err
	}
	var open []models.ScheduledPayout
	for _, p := range payouts {
		if !p.Status.Terminal() {
			open = append(open, p)
		}
	}
	return s.processAll(ctx, open, batchID), nil
}

// processAll runs every item independently; a failed disbursement is
// recorded on its payout and never aborts the rest of the run.
func (s *service) processAll(ctx context.Context, payouts []models.ScheduledPayout, batchID string) *BatchResult {
	result := &BatchResult{BatchID: batchID, Total: len(payouts)}
	for i := range payouts {
		if s.processOne(ctx, &payouts[i]) {
			result.Processed++
		} else {
			result.Failed++
		}
	}
	if result.Total > 0 {
		logging.Payments().Info().
			Str("batch_id", batchID).
			Int("total", result.Total).
			Int("processed", result.Processed).
			Int("failed", result.Failed).
			Msg("payout run finished")
	}
	return result
}

func (s *service) processOne(ctx context.Context, p *models.ScheduledPayout) bool {
	if !p.Status.CanTransitionTo(models.PayoutProcessing) {
		logging.Payments().Warn().
			Uint("payout_id", p.ID).
			Str("status", string(p.Status)).
			Msg("payout not in a processable state")
		return false
	}
	p.Status = models.PayoutProcessing
	if err := s.repo.Update(p); err != nil {
		logging.Payments().Error().Err(err).Uint("payout_id", p.ID).Msg("payout status update failed")
		return false
	}

	provider, err := s.repo.Provider(p.ProviderID)
	if err != nil {
		s.markFailed(ctx, p, models.PayoutFailureTerminal, "provider lookup failed: "+err.Error())
		return false
	}
	if !provider.HasPayoutDetails() {
		s.markFailed(ctx, p, models.PayoutFailureTerminal, domainerr.ErrMissingPayoutDetails.Message)
		return false
	}
	gw, err := s.registry.Get(p.Gateway)
	if err != nil {
		s.markFailed(ctx, p, models.PayoutFailureTerminal, err.Error())
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, disburseTimeout)
	defer cancel()
	result, err := gw.Disburse(callCtx, gateway.DisburseRequest{
		Reference: fmt.Sprintf("payout-%d-%d", p.ID, p.RetryCount),
		Amount:    p.Amount,
		Currency:  p.Currency,
		Recipient: provider.PayoutRecipient,
		BankCode:  provider.PayoutBankCode,
		Narration: fmt.Sprintf("payout for %s", provider.BusinessName),
	})
	if err != nil {
		kind := models.PayoutFailureTerminal
		if gateway.IsRetryable(err) {
			kind = models.PayoutFailureRetryable
		}
		s.markFailed(ctx, p, kind, err.Error())
		return false
	}
	if !result.Success {
		// Adapters return declines as results only when the gateway gave a
		// definitive no; those need operator attention, not a retry.
		s.markFailed(ctx, p, models.PayoutFailureTerminal, result.ErrorMessage)
		return false
	}

	err = s.repo.InTransaction(func(tx repositories.PayoutTx) error {
		if _, err := ledger.RecordDebitTx(tx, p.ProviderID, p.Amount,
			ledger.SourcePayout, p.ID, fmt.Sprintf("disbursement %s", result.TransactionID)); err != nil {
			return err
		}
		now := time.Now()
		p.Status = models.PayoutCompleted
		p.TransactionID = result.TransactionID
		p.FailureKind = models.PayoutFailureNone
		p.FailureReason = ""
		p.ProcessedAt = &now
		return tx.UpdatePayout(p)
	})
	if err != nil {
		// The money left the gateway but the ledger debit failed; this is
		// the one place that must page someone rather than retry blindly.
		logging.Payments().Error().
			Err(err).
			Uint("payout_id", p.ID).
			Str("transaction_id", result.TransactionID).
			Msg("disbursed but ledger debit failed, manual reconciliation required")
		s.markFailed(ctx, p, models.PayoutFailureTerminal, "ledger debit failed after disbursement: "+err.Error())
		return false
	}

	s.notifier.Notify(ctx, notification.Notification{
		Event:      notification.EventPayoutCompleted,
		PayoutID:   p.ID,
		ProviderID: p.ProviderID,
		Amount:     p.Amount,
	})
	logging.Payments().Info().
		Uint("payout_id", p.ID).
		Uint("provider_id", p.ProviderID).
		Float64("amount", p.Amount).
		Str("transaction_id", p.TransactionID).
		Msg("payout completed")
	return true
}

func (s *service) markFailed(ctx context.Context, p *models.ScheduledPayout, kind models.PayoutFailureKind, reason string) {
	if p.Status.CanTransitionTo(models.PayoutFailed) {
		p.Status = models.PayoutFailed
	}
	p.RetryCount++
	p.FailureKind = kind
	p.FailureReason = reason
	if err := s.repo.Update(p); err != nil {
		logging.Payments().Error().Err(err).Uint("payout_id", p.ID).Msg("payout failure update failed")
	}

	s.notifier.Notify(ctx, notification.Notification{
		Event:      notification.EventPayoutFailed,
		PayoutID:   p.ID,
		ProviderID: p.ProviderID,
		Amount:     p.Amount,
		Reason:     reason,
	})
	logging.Payments().Warn().
		Uint("payout_id", p.ID).
		Str("kind", string(kind)).
		Str("reason", reason).
		Int("retry_count", p.RetryCount).
		Msg("payout failed")
}

func (s *service) Retry(ctx context.Context, id uint) (*models.ScheduledPayout, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PayoutFailed {
		return nil, domainerr.ErrInvalidTransition.WithDetail(
			"payout %d is %s, only failed payouts can be retried", p.ID, p.Status)
	}
	s.processOne(ctx, p)
	return p, nil
}

func (s *service) Cancel(ctx context.Context, id uint) (*models.ScheduledPayout, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(models.PayoutCancelled) {
		return nil, domainerr.ErrPayoutNotCancellable.WithDetail("payout %d is %s", p.ID, p.Status)
	}
	p.Status = models.PayoutCancelled
	if err := s.repo.Update(p); err != nil {
		return nil, err
	}
	logging.Payments().Info().Uint("payout_id", p.ID).Msg("payout cancelled")
	return p, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.ScheduledPayout, error) {
	p, err := s.repo.Get(id)
	if err != nil {
		if errors.Is(err, repositories.ErrPayoutNotFound) {
			return nil, domainerr.ErrPayoutNotFound.WithDetail("payout %d", id)
		}
		return nil, err
	}
	return p, nil
}
