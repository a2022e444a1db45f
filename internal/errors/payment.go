package errors

var (
	ErrInvalidTransition = &DomainError{
		Code:    "INVALID_TRANSITION",
		Message: "illegal status transition",
	}
	ErrPaymentNotRefundable = &DomainError{
		Code:    "PAYMENT_NOT_REFUNDABLE",
		Message: "payment is not in a refundable status",
	}
	ErrRefundExceedsPayment = &DomainError{
		Code:    "REFUND_EXCEEDS_PAYMENT",
		Message: "refund amount exceeds remaining refundable amount",
	}
	ErrPaymentNotFound = &DomainError{
		Code:    "PAYMENT_NOT_FOUND",
		Message: "payment not found",
	}
	ErrBookingNotFound = &DomainError{
		Code:    "BOOKING_NOT_FOUND",
		Message: "booking not found",
	}
	ErrUnknownTier = &DomainError{
		Code:    "UNKNOWN_TIER",
		Message: "unknown subscription tier",
	}
	ErrUnknownGateway = &DomainError{
		Code:    "UNKNOWN_GATEWAY",
		Message: "no gateway registered under that name",
	}
	ErrWebhookSignature = &DomainError{
		Code:    "WEBHOOK_SIGNATURE",
		Message: "webhook signature verification failed",
	}
	ErrRefundDeclined = &DomainError{
		Code:    "REFUND_DECLINED",
		Message: "gateway declined the refund",
	}
)
