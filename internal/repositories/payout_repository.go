package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"zeen/internal/models"
)

// ErrPayoutNotFound is returned when a scheduled payout does not exist.
var ErrPayoutNotFound = errors.New("scheduled payout not found")

// PayoutTx is the transaction-scoped surface for payout completion: the
// ledger debit and the status update happen in one database transaction.
type PayoutTx interface {
	LedgerTx
	UpdatePayout(p *models.ScheduledPayout) error
}

// PayoutRepository is the payout scheduler's database access interface.
type PayoutRepository interface {
	// ProvidersWithLedgerActivity lists providers that have at least one
	// ledger entry, the candidate set for the schedule phase.
	ProvidersWithLedgerActivity() ([]models.Provider, error)
	Provider(id uint) (*models.Provider, error)
	HasActivePayout(providerID uint) (bool, error)
	Create(p *models.ScheduledPayout) error
	// Due lists pending payouts whose scheduled date has arrived plus
	// failed ones still under the retry limit.
	Due(now time.Time, maxRetries int) ([]models.ScheduledPayout, error)
	ByBatch(batchID string) ([]models.ScheduledPayout, error)
	Get(id uint) (*models.ScheduledPayout, error)
	Update(p *models.ScheduledPayout) error
	InTransaction(fn func(PayoutTx) error) error
}

type payoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository returns the GORM-backed payout repository.
func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) ProvidersWithLedgerActivity() ([]models.Provider, error) {
	var providers []models.Provider
	err := r.db.
		Where("id IN (?)", r.db.Model(&models.LedgerEntry{}).Distinct("provider_id")).
		Order("id ASC").
		Find(&providers).Error
	return providers, err
}

func (r *payoutRepository) Provider(id uint) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &provider, nil
}

func (r *payoutRepository) HasActivePayout(providerID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ScheduledPayout{}).
		Where("provider_id = ? AND status IN ?", providerID,
			[]models.PayoutStatus{models.PayoutPending, models.PayoutProcessing, models.PayoutFailed}).
		Count(&count).Error
	return count > 0, err
}

func (r *payoutRepository) Create(p *models.ScheduledPayout) error {
	return r.db.Create(p).Error
}

func (r *payoutRepository) Due(now time.Time, maxRetries int) ([]models.ScheduledPayout, error) {
	var payouts []models.ScheduledPayout
	err := r.db.
		Where("scheduled_for <= ?", now).
		Where(
			r.db.Where("status = ?", models.PayoutPending).
				Or("status = ? AND failure_kind = ? AND retry_count < ?",
					models.PayoutFailed, models.PayoutFailureRetryable, maxRetries),
		).
		Order("id ASC").
		Find(&payouts).Error
	return payouts, err
}

func (r *payoutRepository) ByBatch(batchID string) ([]models.ScheduledPayout, error) {
	var payouts []models.ScheduledPayout
	err := r.db.Where("batch_id = ?", batchID).Order("id ASC").Find(&payouts).Error
	return payouts, err
}

func (r *payoutRepository) Get(id uint) (*models.ScheduledPayout, error) {
	var payout models.ScheduledPayout
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	return &payout, nil
}

func (r *payoutRepository) Update(p *models.ScheduledPayout) error {
	return r.db.Save(p).Error
}

func (r *payoutRepository) InTransaction(fn func(PayoutTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (s *txStore) UpdatePayout(p *models.ScheduledPayout) error {
	return s.db.Save(p).Error
}
