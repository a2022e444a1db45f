package payout

import (
	"context"

	"zeen/internal/models"
)

// Service schedules and processes provider disbursements. Scheduling
// freezes the payout amount from the eligible ledger balance; processing
// moves the money and debits the ledger in the same transaction.
type Service interface {
	// SchedulePayouts scans providers with ledger activity and creates one
	// pending payout per provider whose eligible balance clears the
	// minimum. Returns the number of payouts scheduled.
	SchedulePayouts(ctx context.Context) (int, error)

	// ScheduleForProvider schedules one payout outside the regular sweep,
	// for operator-triggered disbursements. It enforces the same minimum,
	// details and single-active-payout rules as the sweep.
	ScheduleForProvider(ctx context.Context, providerID uint) (*models.ScheduledPayout, error)

	// ProcessDuePayouts disburses every payout that is due, including
	// retry-eligible failures. One item's failure never aborts the run.
	ProcessDuePayouts(ctx context.Context) (*BatchResult, error)

	// ProcessBatch disburses the still-unsettled payouts of one batch.
	ProcessBatch(ctx context.Context, batchID string) (*BatchResult, error)

	// Retry immediately re-attempts a failed payout regardless of its
	// retry budget.
	Retry(ctx context.Context, id uint) (*models.ScheduledPayout, error)

	// Cancel cancels a pending payout. The frozen amount simply stays on
	// the ledger; nothing was debited yet.
	Cancel(ctx context.Context, id uint) (*models.ScheduledPayout, error)

	Get(ctx context.Context, id uint) (*models.ScheduledPayout, error)
}
