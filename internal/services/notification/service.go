// Package notification is the boundary to the external notification
// collaborator (email/SMS). The payment lifecycle emits exactly one
// event per state transition, after the owning database transaction has
// committed; delivery is someone else's problem.
package notification

import (
	"context"

	"zeen/internal/logging"
)

// Event names emitted by the payments core.
type Event string

const (
	EventPaymentCompleted Event = "payment.completed"
	EventPaymentFailed    Event = "payment.failed"
	EventPaymentRefunded  Event = "payment.refunded"
	EventBookingConfirmed Event = "booking.confirmed"
	EventBookingCancelled Event = "booking.cancelled"
	EventPayoutCompleted  Event = "payout.completed"
	EventPayoutFailed     Event = "payout.failed"
)

// Notification is one event for the external notification service.
type Notification struct {
	Event      Event
	BookingID  uint
	PaymentID  uint
	PayoutID   uint
	ProviderID uint
	ClientID   uint
	Amount     float64
	Reason     string
}

// Notifier delivers notifications. Implementations must not fail the
// caller: a notification problem never rolls back a financial write.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes events to the payments log channel. It stands in
// for the real email/SMS dispatcher in development and tests.
type LogNotifier struct{}

// NewLogNotifier returns a logging notifier.
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event Notification) {
	logging.Payments().Info().
		Str("event", string(event.Event)).
		Uint("booking_id", event.BookingID).
		Uint("payment_id", event.PaymentID).
		Uint("payout_id", event.PayoutID).
		Uint("provider_id", event.ProviderID).
		Float64("amount", event.Amount).
		Str("reason", event.Reason).
		Msg("notification emitted")
}
