package models

import (
	"time"
)

// PayoutStatus is the lifecycle state of a scheduled payout.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
	PayoutCancelled  PayoutStatus = "cancelled"
)

// payoutTransitions is the full adjacency of legal payout status moves.
// A failed payout may be retried (back to processing); pending payouts
// may be cancelled by an operator.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutProcessing, PayoutCancelled},
	PayoutProcessing: {PayoutCompleted, PayoutFailed},
	PayoutFailed:     {PayoutProcessing},
	PayoutCompleted:  {},
	PayoutCancelled:  {},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s PayoutStatus) CanTransitionTo(target PayoutStatus) bool {
	for _, next := range payoutTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a final state. Failed is not terminal
// because a failed payout stays retry-eligible until its retries run out.
func (s PayoutStatus) Terminal() bool {
	return s == PayoutCompleted || s == PayoutCancelled
}

// PayoutFailureKind separates retryable gateway failures from ones that
// need an operator (bad bank details and the like).
type PayoutFailureKind string

const (
	PayoutFailureNone      PayoutFailureKind = ""
	PayoutFailureRetryable PayoutFailureKind = "retryable"
	PayoutFailureTerminal  PayoutFailureKind = "requires_action"
)

// ScheduledPayout aggregates a provider's due ledger balance into one
// disbursement. Amount is frozen at scheduling time and never re-derived
// at processing time.
type ScheduledPayout struct {
	ID         uint         `gorm:"primarykey"`
	ProviderID uint         `gorm:"index;not null"`
	BatchID    string       `gorm:"index;not null"`
	Status     PayoutStatus `gorm:"index;not null;default:'pending'"`

	Amount   float64 `gorm:"not null"`
	Currency string  `gorm:"default:'USD'"`
	Gateway  string  `gorm:"not null"`

	ScheduledFor  time.Time `gorm:"index;not null"`
	RetryCount    int       `gorm:"default:0"`
	FailureKind   PayoutFailureKind
	FailureReason string
	TransactionID string // gateway disbursement reference

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Provider Provider `gorm:"foreignKey:ProviderID"`
}
