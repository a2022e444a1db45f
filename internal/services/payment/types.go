package payment

import (
	"zeen/internal/models"
)

// InitializeRequest starts a payment for a pending booking.
type InitializeRequest struct {
	BookingID     uint   `json:"booking_id" validate:"required"`
	Gateway       string `json:"gateway" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CallbackURL   string `json:"callback_url" validate:"omitempty,url"`
}

// InitializeResponse is what the client needs to finish paying.
type InitializeResponse struct {
	Payment     *models.Payment `json:"payment"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

// RefundRequest refunds part or all of a completed payment.
type RefundRequest struct {
	PaymentID uint    `json:"payment_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reason    string  `json:"reason"`
}

// cancelledBySystemReason marks bookings cancelled as a consequence of a
// full refund rather than by either party.
const cancelledBySystemReason = "cancelled after full refund"
