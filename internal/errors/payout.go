package errors

var (
	ErrPayoutNotFound = &DomainError{
		Code:    "PAYOUT_NOT_FOUND",
		Message: "scheduled payout not found",
	}
	ErrPayoutNotCancellable = &DomainError{
		Code:    "PAYOUT_NOT_CANCELLABLE",
		Message: "only pending payouts can be cancelled",
	}
	ErrPayoutAlreadyScheduled = &DomainError{
		Code:    "PAYOUT_ALREADY_SCHEDULED",
		Message: "provider already has a payout in flight",
	}
	ErrMissingPayoutDetails = &DomainError{
		Code:    "MISSING_PAYOUT_DETAILS",
		Message: "provider has no disbursement details on file",
	}
)
