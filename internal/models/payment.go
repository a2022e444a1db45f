package models

import (
	"time"
)

// PaymentStatus is the lifecycle state of a single payment attempt.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// paymentTransitions is the full adjacency of legal payment status moves.
// Completion is one-way: a completed payment only moves through refunds.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:           {PaymentProcessing, PaymentFailed},
	PaymentProcessing:        {PaymentCompleted, PaymentFailed},
	PaymentCompleted:         {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentPartiallyRefunded: {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentFailed:            {},
	PaymentRefunded:          {},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Refundable reports whether a payment in state s may accept a refund.
func (s PaymentStatus) Refundable() bool {
	return s == PaymentCompleted || s == PaymentPartiallyRefunded
}

// Payment records one charge attempt for a booking.
type Payment struct {
	ID        uint          `gorm:"primarykey"`
	BookingID uint          `gorm:"index;not null"`
	Status    PaymentStatus `gorm:"not null;default:'pending'"`

	Amount         float64 `gorm:"not null"` // amount charged to the client
	ZeenFee        float64 `gorm:"not null"`
	GatewayFee     float64 `gorm:"not null"`
	ProviderAmount float64 `gorm:"not null"` // provider's share of Amount
	RefundedAmount float64 `gorm:"default:0"`
	Currency       string  `gorm:"default:'USD'"`

	Gateway       string `gorm:"not null"`
	OrderID       string `gorm:"uniqueIndex;not null"` // our reference sent to the gateway
	TransactionID string `gorm:"index"`                // gateway's reference, set on completion
	ResponseCode  string
	FailureReason string
	CardBrand     string
	CardLast4     string

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Booking Booking `gorm:"foreignKey:BookingID"`
}

// RemainingRefundable is the amount still eligible for refund.
func (p *Payment) RemainingRefundable() float64 {
	return p.Amount - p.RefundedAmount
}
