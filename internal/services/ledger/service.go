// Package ledger maintains the append-only balance ledger per provider.
// The ledger is the single source of truth for balances: entries are
// never mutated or deleted, and the available balance is always derived
// by replaying entries in creation order.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainerr "zeen/internal/errors"
	"zeen/internal/logging"
	"zeen/internal/models"
	"zeen/internal/repositories"
)

// Source types recorded on entries.
const (
	SourcePayment = "payment"
	SourcePayout  = "scheduled_payout"
	SourceRefund  = "refund"
	SourceManual  = "manual"
)

// BalanceSummary is a provider's balance broken out for display.
type BalanceSummary struct {
	Available         float64 `json:"available"`
	OnHold            float64 `json:"on_hold"`
	EligibleForPayout float64 `json:"eligible_for_payout"`
}

// Service is the ledger API.
type Service interface {
	RecordCredit(ctx context.Context, providerID uint, amount float64, sourceType string, sourceID uint, description string) (*models.LedgerEntry, error)
	RecordDebit(ctx context.Context, providerID uint, amount float64, sourceType string, sourceID uint, description string) (*models.LedgerEntry, error)
	RecordHold(ctx context.Context, providerID uint, amount float64, description string) (*models.LedgerEntry, error)
	ReleaseHold(ctx context.Context, providerID, holdID uint) (*models.LedgerEntry, error)
	AvailableBalance(ctx context.Context, providerID uint) (float64, error)
	// EligibleBalance is the balance attributable to credits older than
	// the cutoff, the amount the payout scheduler may disburse.
	EligibleBalance(ctx context.Context, providerID uint, cutoff time.Time) (float64, error)
	BalanceSummary(ctx context.Context, providerID uint, cutoff time.Time) (*BalanceSummary, error)
	Entries(ctx context.Context, providerID uint, limit, offset int) ([]models.LedgerEntry, error)
}

type service struct {
	repo repositories.LedgerRepository
}

// NewService returns the ledger service.
func NewService(repo repositories.LedgerRepository) Service {
	if repo == nil {
		panic("ledger repository is required")
	}
	return &service{repo: repo}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Replay derives the available balance by applying entries in order.
func Replay(entries []models.LedgerEntry) float64 {
	balance := decimal.Zero
	for _, e := range entries {
		amount := decimal.NewFromFloat(e.Amount)
		if e.Type.IncreasesBalance() {
			balance = balance.Add(amount)
		} else {
			balance = balance.Sub(amount)
		}
	}
	return round2(balance)
}

// EligibleReplay derives the payout-eligible balance: increases count
// only once they are older than the cutoff, decreases always count.
// This models the dispute window on freshly credited funds.
func EligibleReplay(entries []models.LedgerEntry, cutoff time.Time) float64 {
	balance := decimal.Zero
	for _, e := range entries {
		amount := decimal.NewFromFloat(e.Amount)
		if e.Type.IncreasesBalance() {
			if !e.CreatedAt.After(cutoff) {
				balance = balance.Add(amount)
			}
		} else {
			balance = balance.Sub(amount)
		}
	}
	if balance.IsNegative() {
		return 0
	}
	return round2(balance)
}

// heldReplay sums outstanding holds (holds minus releases).
func heldReplay(entries []models.LedgerEntry) float64 {
	held := decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case models.LedgerHold:
			held = held.Add(decimal.NewFromFloat(e.Amount))
		case models.LedgerRelease:
			held = held.Sub(decimal.NewFromFloat(e.Amount))
		}
	}
	return round2(held)
}

// RecordCreditTx appends a credit inside an existing transaction. It is
// exported so payment completion can credit the provider atomically with
// the payment and booking updates.
func RecordCreditTx(tx repositories.LedgerTx, providerID uint, amount float64, sourceType string, sourceID uint, description string) (*models.LedgerEntry, error) {
	return appendEntry(tx, &models.LedgerEntry{
		ProviderID:  providerID,
		Type:        models.LedgerCredit,
		Amount:      amount,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Description: description,
	})
}

// RecordDebitTx appends a debit inside an existing transaction, failing
// with ErrInsufficientBalance before any entry is written when the
// available balance cannot cover the amount.
func RecordDebitTx(tx repositories.LedgerTx, providerID uint, amount float64, sourceType string, sourceID uint, description string) (*models.LedgerEntry, error) {
	return appendEntry(tx, &models.LedgerEntry{
		ProviderID:  providerID,
		Type:        models.LedgerDebit,
		Amount:      amount,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Description: description,
	})
}

// appendEntry holds the append invariants in one place: provider lock,
// balance replay, insufficient-funds precondition, release-once check,
// and the recorded balance-after.
func appendEntry(tx repositories.LedgerTx, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	if entry.Amount <= 0 {
		return nil, domainerr.ErrInvalidAmount.WithDetail("%.2f", entry.Amount)
	}
	if !entry.Type.Valid() {
		return nil, domainerr.ErrInvalidAmount.WithDetail("unknown entry type %q", entry.Type)
	}
	entry.Amount = round2(decimal.NewFromFloat(entry.Amount))

	if _, err := tx.LockProvider(entry.ProviderID); err != nil {
		return nil, err
	}

	entries, err := tx.LedgerEntries(entry.ProviderID)
	if err != nil {
		return nil, err
	}
	balance := decimal.NewFromFloat(Replay(entries))
	amount := decimal.NewFromFloat(entry.Amount)

	if entry.Type.IncreasesBalance() {
		balance = balance.Add(amount)
	} else {
		// Precondition, not a post-hoc check: the entry is only written
		// if the balance stays non-negative.
		if balance.LessThan(amount) {
			return nil, domainerr.ErrInsufficientBalance.WithDetail(
				"available %.2f, requested %.2f", round2(balance), entry.Amount)
		}
		balance = balance.Sub(amount)
	}

	entry.BalanceAfter = round2(balance)
	if err := tx.InsertLedgerEntry(entry); err != nil {
		return nil, err
	}

	logging.Payments().Info().
		Uint("provider_id", entry.ProviderID).
		Str("type", string(entry.Type)).
		Float64("amount", entry.Amount).
		Float64("balance_after", entry.BalanceAfter).
		Msg("ledger entry appended")

	return entry, nil
}

func (s *service) RecordCredit(ctx context.Context, providerID uint, amount float64, sourceType string, sourceID uint, description string) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		var txErr error
		entry, txErr = RecordCreditTx(tx, providerID, amount, sourceType, sourceID, description)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) RecordDebit(ctx context.Context, providerID uint, amount float64, sourceType string, sourceID uint, description string) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		var txErr error
		entry, txErr = RecordDebitTx(tx, providerID, amount, sourceType, sourceID, description)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) RecordHold(ctx context.Context, providerID uint, amount float64, description string) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		var txErr error
		entry, txErr = appendEntry(tx, &models.LedgerEntry{
			ProviderID:  providerID,
			Type:        models.LedgerHold,
			Amount:      amount,
			SourceType:  SourceManual,
			Description: description,
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ReleaseHold(ctx context.Context, providerID, holdID uint) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		hold, err := tx.LedgerHold(holdID)
		if err != nil {
			return err
		}
		if hold == nil || hold.ProviderID != providerID {
			return domainerr.ErrHoldNotFound.WithDetail("hold %d", holdID)
		}
		existing, err := tx.ReleaseForHold(holdID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainerr.ErrHoldAlreadyReleased.WithDetail("hold %d", holdID)
		}

		id := holdID
		entry, err = appendEntry(tx, &models.LedgerEntry{
			ProviderID:     providerID,
			Type:           models.LedgerRelease,
			Amount:         hold.Amount,
			SourceType:     SourceManual,
			ReleasedHoldID: &id,
			Description:    "release of hold",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) AvailableBalance(ctx context.Context, providerID uint) (float64, error) {
	balance := 0.0
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		entries, err := tx.LedgerEntries(providerID)
		if err != nil {
			return err
		}
		balance = Replay(entries)
		return nil
	})
	return balance, err
}

func (s *service) EligibleBalance(ctx context.Context, providerID uint, cutoff time.Time) (float64, error) {
	balance := 0.0
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		entries, err := tx.LedgerEntries(providerID)
		if err != nil {
			return err
		}
		balance = EligibleReplay(entries, cutoff)
		return nil
	})
	return balance, err
}

func (s *service) BalanceSummary(ctx context.Context, providerID uint, cutoff time.Time) (*BalanceSummary, error) {
	var summary *BalanceSummary
	err := s.repo.InTransaction(func(tx repositories.LedgerTx) error {
		entries, err := tx.LedgerEntries(providerID)
		if err != nil {
			return err
		}
		summary = &BalanceSummary{
			Available:         Replay(entries),
			OnHold:            heldReplay(entries),
			EligibleForPayout: EligibleReplay(entries, cutoff),
		}
		return nil
	})
	return summary, err
}

func (s *service) Entries(ctx context.Context, providerID uint, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Entries(providerID, limit, offset)
}
