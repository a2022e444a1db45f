package models

import (
	"time"
)

// LedgerEntryType classifies a balance movement.
type LedgerEntryType string

const (
	LedgerCredit  LedgerEntryType = "credit"
	LedgerDebit   LedgerEntryType = "debit"
	LedgerHold    LedgerEntryType = "hold"
	LedgerRelease LedgerEntryType = "release"
)

// IncreasesBalance reports whether entries of type t add to the available
// balance. Credits and releases add; debits and holds subtract.
func (t LedgerEntryType) IncreasesBalance() bool {
	return t == LedgerCredit || t == LedgerRelease
}

// Valid reports whether t is a known entry type.
func (t LedgerEntryType) Valid() bool {
	switch t {
	case LedgerCredit, LedgerDebit, LedgerHold, LedgerRelease:
		return true
	}
	return false
}

// LedgerEntry is one immutable row in a provider's balance ledger.
// Entries are append-only: they are never updated or deleted, and the
// available balance is derived by replaying them in id order.
type LedgerEntry struct {
	ID         uint            `gorm:"primarykey"`
	ProviderID uint            `gorm:"index;not null"`
	Type       LedgerEntryType `gorm:"not null"`
	Amount     float64         `gorm:"not null"` // always positive
	// BalanceAfter is the available balance after this entry, recorded for
	// audit. The replayed balance must always agree with it.
	BalanceAfter float64 `gorm:"not null"`

	// SourceType/SourceID point at the record that caused the movement
	// (payment, scheduled_payout, refund).
	SourceType string `gorm:"index"`
	SourceID   uint   `gorm:"index"`

	// ReleasedHoldID links a release entry to the hold it releases.
	ReleasedHoldID *uint `gorm:"uniqueIndex"`

	Description string
	CreatedAt   time.Time
}
