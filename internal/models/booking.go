package models

import (
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

// bookingTransitions is the full adjacency of legal booking status moves.
// Terminal states have no outgoing edges.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled, BookingNoShow},
	BookingCompleted: {},
	BookingCancelled: {},
	BookingNoShow:    {},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking links a client to a provider's service. The fee breakdown is
// frozen at creation time: once stored it is never recalculated from
// current tier rates, so later tier changes cannot reprice the booking.
type Booking struct {
	ID         uint          `gorm:"primarykey"`
	ClientID   uint          `gorm:"index;not null"`
	ProviderID uint          `gorm:"index;not null"`
	ServiceID  uint          `gorm:"index;not null"`
	Status     BookingStatus `gorm:"not null;default:'pending'"`
	StartsAt   time.Time

	// Frozen fee snapshot.
	ServicePrice   float64  `gorm:"not null"`
	ZeenFee        float64  `gorm:"not null"`
	GatewayFee     float64  `gorm:"not null"`
	ConvenienceFee float64  `gorm:"default:0"`
	DepositAmount  float64  `gorm:"default:0"`
	FeePayer       FeePayer `gorm:"not null;default:'client'"`

	CancellationReason string `gorm:"default:''"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Service  Service  `gorm:"foreignKey:ServiceID"`
	Provider Provider `gorm:"foreignKey:ProviderID"`
}
