package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zeen/internal/models"
)

var (
	// ErrProviderNotFound is returned when a provider row does not exist.
	ErrProviderNotFound = errors.New("provider not found")
)

// LedgerTx is the transaction-scoped surface for ledger writes. Callers
// must lock the provider row first; the lock serializes concurrent
// entry writes per provider so a balance read inside the transaction
// cannot race a concurrent append.
type LedgerTx interface {
	LockProvider(providerID uint) (*models.Provider, error)
	// LedgerEntries returns every entry for the provider in creation
	// (id) order, for balance replay.
	LedgerEntries(providerID uint) ([]models.LedgerEntry, error)
	InsertLedgerEntry(entry *models.LedgerEntry) error
	LedgerHold(id uint) (*models.LedgerEntry, error)
	// ReleaseForHold returns the release entry linked to holdID, or nil
	// when the hold is still outstanding.
	ReleaseForHold(holdID uint) (*models.LedgerEntry, error)
}

// LedgerRepository is the ledger's database access interface.
type LedgerRepository interface {
	InTransaction(fn func(LedgerTx) error) error
	Entries(providerID uint, limit, offset int) ([]models.LedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns the GORM-backed ledger repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) InTransaction(fn func(LedgerTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (r *ledgerRepository) Entries(providerID uint, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.
		Where("provider_id = ?", providerID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

// txStore implements the transaction-scoped interfaces over one *gorm.DB
// transaction handle. It is shared by the ledger, payment and payout
// repositories so a single database transaction can span all three.
type txStore struct {
	db *gorm.DB
}

func (s *txStore) LockProvider(providerID uint) (*models.Provider, error) {
	var provider models.Provider
	err := s.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&provider, providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &provider, nil
}

func (s *txStore) LedgerEntries(providerID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.
		Where("provider_id = ?", providerID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (s *txStore) InsertLedgerEntry(entry *models.LedgerEntry) error {
	return s.db.Create(entry).Error
}

func (s *txStore) LedgerHold(id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.db.
		Where("id = ? AND type = ?", id, models.LedgerHold).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (s *txStore) ReleaseForHold(holdID uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.db.
		Where("released_hold_id = ?", holdID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
