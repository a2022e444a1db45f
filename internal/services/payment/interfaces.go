package payment

import (
	"context"
	"time"

	"zeen/internal/models"
)

// Service drives the payment lifecycle for bookings. Money amounts come
// from the booking's frozen fee snapshot; nothing here recalculates fees.
type Service interface {
	// Initialize creates a pending payment for the booking and starts the
	// hosted-payment flow on the booking's gateway.
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)

	// HandleWebhook verifies, dedupes and applies one raw gateway webhook
	// delivery. A verification failure is an error (the handler should
	// answer 400); a duplicate or irrelevant event is a silent no-op.
	HandleWebhook(ctx context.Context, gatewayName string, payload []byte, headers map[string]string) error

	// ConfirmByOrderID queries the gateway for the definitive outcome of
	// the payment and applies it. Used by the browser-callback handler and
	// by reconciliation; safe to call on already-settled payments.
	ConfirmByOrderID(ctx context.Context, orderID string) (*models.Payment, error)

	// Refund refunds part or all of a completed payment. A full refund
	// cascades a cancellation to the booking when that transition is legal.
	Refund(ctx context.Context, req RefundRequest) (*models.Payment, error)

	// ReconcilePending sweeps payments stuck in processing for longer than
	// age and settles the ones the gateway has an outcome for. Returns the
	// number of payments settled.
	ReconcilePending(ctx context.Context, age time.Duration) (int, error)

	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}
